package memoize

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/agentuity/go-memoize"

type cacheMetrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
	errors metric.Int64Counter
	attrs  metric.MeasurementOption
}

func newCacheMetrics(mp metric.MeterProvider, cacheName string) (*cacheMetrics, error) {
	meter := mp.Meter(instrumentationName)
	hits, err := meter.Int64Counter("memoize.hits",
		metric.WithDescription("Number of lookups served from cache"))
	if err != nil {
		return nil, err
	}
	misses, err := meter.Int64Counter("memoize.misses",
		metric.WithDescription("Number of lookups that invoked the compute function"))
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter("memoize.errors",
		metric.WithDescription("Number of storage or key derivation failures handled fail-open"))
	if err != nil {
		return nil, err
	}
	return &cacheMetrics{
		hits:   hits,
		misses: misses,
		errors: errs,
		attrs:  metric.WithAttributes(attribute.String("cache", cacheName)),
	}, nil
}

func (m *cacheMetrics) addHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.hits.Add(ctx, 1, m.attrs)
}

func (m *cacheMetrics) addMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.misses.Add(ctx, 1, m.attrs)
}

func (m *cacheMetrics) addError(ctx context.Context) {
	if m == nil {
		return
	}
	m.errors.Add(ctx, 1, m.attrs)
}
