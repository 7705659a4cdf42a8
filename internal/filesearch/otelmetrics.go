package filesearch

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OtelMetrics implements MetricsSink on top of an OpenTelemetry Meter.
type OtelMetrics struct {
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	searchLatency  metric.Float64Histogram
	terminations   metric.Int64Counter
}

// NewOtelMetrics registers the engine's instruments against meter.
func NewOtelMetrics(meter metric.Meter) (*OtelMetrics, error) {
	cacheHits, err := meter.Int64Counter("filesearch.cache.hits")
	if err != nil {
		return nil, err
	}
	cacheMisses, err := meter.Int64Counter("filesearch.cache.misses")
	if err != nil {
		return nil, err
	}
	searchLatency, err := meter.Float64Histogram("filesearch.search.latency_seconds")
	if err != nil {
		return nil, err
	}
	terminations, err := meter.Int64Counter("filesearch.requests.terminated")
	if err != nil {
		return nil, err
	}
	return &OtelMetrics{
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
		searchLatency: searchLatency,
		terminations:  terminations,
	}, nil
}

func (m *OtelMetrics) CacheResult(hit bool) {
	ctx := context.Background()
	if hit {
		m.cacheHits.Add(ctx, 1)
		return
	}
	m.cacheMisses.Add(ctx, 1)
}

func (m *OtelMetrics) SearchLatency(seconds float64) {
	m.searchLatency.Record(context.Background(), seconds)
}

func (m *OtelMetrics) Terminated(reason string) {
	m.terminations.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}
