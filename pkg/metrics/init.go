package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initFeatureMetrics() {
	r.FeatureComputationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "satfeat_feature_computations_total",
			Help: "Total number of feature computations",
		},
		[]string{"feature", "status"},
	)

	r.FeatureDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satfeat_feature_duration_seconds",
			Help:    "Feature computation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"feature"},
	)

	r.FeatureValue = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "satfeat_feature_value",
			Help: "Most recent value computed for each feature",
		},
		[]string{"feature"},
	)

	r.GraphNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "satfeat_graph_nodes",
			Help: "Node count of the most recently built graph",
		},
		[]string{"graph"},
	)

	r.GraphEdges = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "satfeat_graph_edges",
			Help: "Distinct edge count of the most recently built graph",
		},
		[]string{"graph"},
	)

	r.GraphBuildTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "satfeat_graph_builds_total",
			Help: "Total number of graphs built from formulas",
		},
		[]string{"graph"},
	)

	r.OptimizerLevels = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "satfeat_optimizer_levels",
			Help:    "Levels run by the modularity optimizer",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	r.OptimizerRounds = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "satfeat_optimizer_rounds",
			Help:    "Local-search rounds run by the modularity optimizer",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	r.OptimizerCommunities = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "satfeat_optimizer_communities",
			Help: "Communities found by the most recent optimization",
		},
		[]string{"graph"},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "satfeat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satfeat_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "satfeat_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)
}

func (r *Registry) initSystemMetrics() {
	r.UptimeSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "satfeat_uptime_seconds",
			Help: "Time since the registry was created in seconds",
		},
	)

	r.GoRoutines = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "satfeat_goroutines",
			Help: "Number of goroutines",
		},
	)

	r.MemoryAllocBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "satfeat_memory_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)
}
