package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRunCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBridgeMetrics(reg)

	m.ObserveRun("bridge_encounter", "sent", 0.25)
	m.ObserveRun("bridge_encounter", "sent", 0.5)
	m.ObserveRun("bridge_encounter", "failed", 0.1)

	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("bridge_encounter", "sent")); got != 2 {
		t.Fatalf("expected 2 sent runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("bridge_encounter", "failed")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
}

func TestObserveResourceCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBridgeMetrics(reg)

	m.ObserveResource("Observation", "ok")
	m.ObserveResource("Observation", "failed")
	m.ObserveResource("Condition", "ok")

	if got := testutil.ToFloat64(m.resourceTotal.WithLabelValues("Observation", "ok")); got != 1 {
		t.Fatalf("expected 1 ok observation, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *BridgeMetrics
	m.ObserveRun("bridge_encounter", "sent", 0.1)
	m.ObserveResource("Condition", "ok")
}
