package metrics

import (
	"runtime"
	"time"
)

// Every Record method is a no-op on a nil registry so callers can leave
// metrics unconfigured.

// RecordFeature records one feature computation
func (r *Registry) RecordFeature(feature, status string, duration time.Duration, value float64) {
	if r == nil {
		return
	}
	r.FeatureComputationsTotal.WithLabelValues(feature, status).Inc()
	r.FeatureDuration.WithLabelValues(feature).Observe(duration.Seconds())
	if status == "success" {
		r.FeatureValue.WithLabelValues(feature).Set(value)
	}
}

// RecordGraph records the size of a freshly built graph
func (r *Registry) RecordGraph(kind string, nodes, edges int) {
	if r == nil {
		return
	}
	r.GraphBuildTotal.WithLabelValues(kind).Inc()
	r.GraphNodes.WithLabelValues(kind).Set(float64(nodes))
	r.GraphEdges.WithLabelValues(kind).Set(float64(edges))
}

// RecordOptimization records the shape of one modularity optimization
func (r *Registry) RecordOptimization(kind string, levels, rounds, communities int) {
	if r == nil {
		return
	}
	r.OptimizerLevels.Observe(float64(levels))
	r.OptimizerRounds.Observe(float64(rounds))
	r.OptimizerCommunities.WithLabelValues(kind).Set(float64(communities))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges
func (r *Registry) UpdateSystemMetrics() {
	if r == nil {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}
