package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	directionLabels = []string{"direction"}

	// Latency buckets in milliseconds, skewed low because most scans are
	// pattern matches.
	latencyBuckets = []float64{
		1, 5, 10,
		25, 50, 100,
		250, 500, 1000,
		2500, 5000, 10000,
	}

	ScanTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shieldgate_scans_total",
			Help: "Total number of scans processed",
		},
		append(directionLabels, "status"),
	)

	ScanLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shieldgate_scan_latency_ms",
			Help:    "Scan latency in milliseconds",
			Buckets: latencyBuckets,
		},
		directionLabels,
	)

	ViolationsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shieldgate_violations_total",
			Help: "Total number of violations detected",
		},
		[]string{"type", "severity"},
	)

	CacheHitsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shieldgate_result_cache_hits_total",
			Help: "Result cache hits by direction",
		},
		directionLabels,
	)
)

// Registry exposes the engine registry to the metrics endpoint.
func Registry() *prometheus.Registry {
	return registry
}
