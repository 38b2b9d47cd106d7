package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xhit/go-str2duration/v2"

	"github.com/agentuity/go-memoize/logger"
	"github.com/agentuity/go-memoize/memoize"
)

var (
	backend    string
	redisURL   string
	dbPath     string
	ttl        string
	shared     bool
	iterations int
	keyspace   int
)

func buildStore(log logger.Logger) (memoize.Store, func(), error) {
	switch backend {
	case "memory":
		return memoize.NewMapStore(), func() {}, nil
	case "sqlite":
		store, err := memoize.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "redis":
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		log.Debug("connected to redis at %s", opts.Addr)
		return memoize.NewRedisStore(client, "memoize-bench"), func() { client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q (want memory, sqlite or redis)", backend)
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.NewConsoleLogger(logger.LevelDebug)

	store, cleanup, err := buildStore(log)
	if err != nil {
		return err
	}
	defer cleanup()

	var timeout time.Duration
	if ttl != "" {
		if timeout, err = str2duration.ParseDuration(ttl); err != nil {
			return err
		}
	}

	reg := memoize.NewRegistry(log)
	opts := []memoize.Option{memoize.WithTimeout(timeout)}
	if shared {
		opts = append(opts, memoize.WithSharedStore(store))
	} else {
		opts = append(opts, memoize.WithStore(store))
	}

	computed := 0
	sum, err := reg.New("bench.sum", func(ctx context.Context, args ...any) ([]any, error) {
		computed++
		return []any{args[0].(int) + args[1].(int)}, nil
	}, opts...)
	if err != nil {
		return err
	}

	started := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := sum.Invoke(ctx, i%keyspace, (i+1)%keyspace); err != nil {
			return err
		}
	}
	elapsed := time.Since(started)

	log.Info("done: %d invocations, %d computed, %d served from cache", iterations, computed, iterations-computed)
	if iterations > 0 {
		log.Info("total %s, avg %s/op", elapsed, elapsed/time.Duration(iterations))
	}

	if err := reg.ClearAll(ctx, ""); err != nil {
		return err
	}
	log.Debug("cleared all caches")
	return nil
}

func main() {
	root := &cobra.Command{
		Use:          "memoize-bench",
		Short:        "Exercise the memoize engine against a storage backend",
		SilenceUsage: true,
		RunE:         run,
	}
	root.Flags().StringVar(&backend, "backend", "memory", "storage backend: memory, sqlite or redis")
	root.Flags().StringVar(&redisURL, "redis-url", "redis://localhost:6379", "redis connection URL (backend=redis)")
	root.Flags().StringVar(&dbPath, "db", ":memory:", "sqlite database path (backend=sqlite)")
	root.Flags().StringVar(&ttl, "ttl", "", "entry TTL expression such as 90s or 5m (empty = never expires)")
	root.Flags().BoolVar(&shared, "shared", false, "store entries name-prefixed in a shared store")
	root.Flags().IntVarP(&iterations, "iterations", "n", 10000, "number of invocations")
	root.Flags().IntVar(&keyspace, "keyspace", 100, "number of distinct argument tuples")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
