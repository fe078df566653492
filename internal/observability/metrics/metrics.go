package metrics

import "github.com/prometheus/client_golang/prometheus"

// BridgeMetrics exposes counters/histograms for the encounter bridging
// pipeline.
type BridgeMetrics struct {
	runsTotal     *prometheus.CounterVec
	resourceTotal *prometheus.CounterVec
	runLatency    *prometheus.HistogramVec
}

func NewBridgeMetrics(reg prometheus.Registerer) *BridgeMetrics {
	m := &BridgeMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "klinika",
			Subsystem: "bridge",
			Name:      "runs_total",
			Help:      "Total bridging runs by operation and outcome",
		}, []string{"operation", "outcome"}),
		resourceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "klinika",
			Subsystem: "bridge",
			Name:      "resource_sends_total",
			Help:      "Total platform resource writes by resource kind and status",
		}, []string{"resource", "status"}),
		runLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "klinika",
			Subsystem: "bridge",
			Name:      "run_latency_seconds",
			Help:      "Latency of full bridging runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.resourceTotal, m.runLatency)
	return m
}

func (m *BridgeMetrics) ObserveRun(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(operation, outcome).Inc()
	m.runLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BridgeMetrics) ObserveResource(resource, status string) {
	if m == nil {
		return
	}
	m.resourceTotal.WithLabelValues(resource, status).Inc()
}
