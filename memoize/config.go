package memoize

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// CacheDefinition declares one cache in a Config document.
type CacheDefinition struct {
	Name    string `yaml:"name" json:"name"`
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Storage string `yaml:"storage,omitempty" json:"storage,omitempty"`
	Shared  bool   `yaml:"shared,omitempty" json:"shared,omitempty"`
}

// Config is a declarative set of cache definitions, typically loaded from a
// YAML document:
//
//	caches:
//	  - name: users.byID
//	    timeout: 5m
//	  - name: config.load
//	    storage: single-slot
//	  - name: geo.lookup
//	    timeout: 1d
//	    shared: true
type Config struct {
	Caches []CacheDefinition `yaml:"caches" json:"caches"`
}

// LoadConfig parses a YAML cache-definition document.
func LoadConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "memoize: invalid config")
	}
	for i, def := range cfg.Caches {
		if def.Name == "" {
			return nil, errors.Newf("memoize: config cache %d has no name", i)
		}
		if _, err := parseKind(def.Storage); err != nil {
			return nil, errors.Wrapf(err, "memoize: config cache %s", def.Name)
		}
	}
	return &cfg, nil
}

// Apply creates and registers every defined cache, binding each definition
// to the compute function registered under the same name in fns. Shared
// definitions go into sharedStore, which must be provided when any
// definition sets shared: true. Returns the created caches in definition
// order.
func (cfg *Config) Apply(r *Registry, fns map[string]ComputeFunc, sharedStore Store) ([]*Cache, error) {
	caches := make([]*Cache, 0, len(cfg.Caches))
	for _, def := range cfg.Caches {
		fn, ok := fns[def.Name]
		if !ok {
			return nil, errors.Newf("memoize: no compute function bound for cache %s", def.Name)
		}
		kind, err := parseKind(def.Storage)
		if err != nil {
			return nil, errors.Wrapf(err, "memoize: cache %s", def.Name)
		}
		opts := []Option{WithStorage(kind)}
		if def.Timeout != "" {
			opts = append(opts, WithTimeoutString(def.Timeout))
		}
		if def.Shared {
			if sharedStore == nil {
				return nil, errors.Newf("memoize: cache %s is shared but no shared store was provided", def.Name)
			}
			opts = append(opts, WithSharedStore(sharedStore))
		}
		c, err := r.New(def.Name, fn, opts...)
		if err != nil {
			return nil, err
		}
		caches = append(caches, c)
	}
	return caches, nil
}

func parseKind(s string) (StorageKind, error) {
	switch s {
	case "", "map":
		return KindMap, nil
	case "single-slot":
		return KindSingleSlot, nil
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
}
