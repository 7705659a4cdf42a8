package filesearch

import (
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestNoopMetrics_DiscardsEverything(t *testing.T) {
	var m MetricsSink = NoopMetrics{}
	// Nothing to assert beyond "does not panic" — NoopMetrics exists so
	// callers never need a nil check.
	m.CacheResult(true)
	m.CacheResult(false)
	m.SearchLatency(0.125)
	m.Terminated("completed")
}

func TestNewOtelMetrics_RegistersInstruments(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("filesearch_test")

	m, err := NewOtelMetrics(meter)
	if err != nil {
		t.Fatalf("NewOtelMetrics: %v", err)
	}
	if m == nil {
		t.Fatal("expected non-nil OtelMetrics")
	}
}

func TestOtelMetrics_RecordingMethodsDoNotPanic(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("filesearch_test")
	m, err := NewOtelMetrics(meter)
	if err != nil {
		t.Fatalf("NewOtelMetrics: %v", err)
	}

	var sink MetricsSink = m
	sink.CacheResult(true)
	sink.CacheResult(false)
	sink.SearchLatency(0.5)
	sink.Terminated("timeout")
	sink.Terminated("error")
}
