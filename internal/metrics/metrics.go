// Package metrics provides observability for the gateway's provider calls:
// per-method counters, success rates, and a degraded/down health rollup,
// exported in a Prometheus-compatible text format.
package metrics

import "time"

// GatewayMetrics defines the interface for recording and querying provider
// call metrics. RecordProviderCall must be safe for concurrent use.
type GatewayMetrics interface {
	// RecordProviderCall records one upstream provider call.
	RecordProviderCall(method string, duration time.Duration, success bool)

	// GetMetrics returns aggregated metrics across every method.
	GetMetrics() *AggregatedMetrics

	// GetMethodMetrics returns metrics for one method, or nil if unseen.
	GetMethodMetrics(method string) *MethodMetrics

	// GetHealthStatus reports OK, or Degraded when any of: success rate
	// < 90%, average latency > 5s, or no success in the last 5 minutes.
	// PrometheusMetrics never reports Down.
	GetHealthStatus() HealthStatus

	// Export returns metrics in Prometheus text format.
	Export() string

	// Reset clears all recorded metrics.
	Reset()
}

// AggregatedMetrics summarizes every provider call recorded so far.
type AggregatedMetrics struct {
	TotalCalls         int64
	SuccessfulCalls    int64
	FailedCalls        int64
	SuccessRate        float64
	AvgDuration        time.Duration
	LastSuccessfulCall time.Time
}

// MethodMetrics is the per-method breakdown.
type MethodMetrics struct {
	Method             string
	TotalCalls         int64
	SuccessfulCalls    int64
	FailedCalls        int64
	SuccessRate        float64
	AvgDuration        time.Duration
	MinDuration        time.Duration
	MaxDuration        time.Duration
	LastSuccessfulCall time.Time
	LastFailedCall     time.Time
}

// HealthStatus is the overall health rollup for the gateway's upstream
// calls.
type HealthStatus struct {
	Status    string
	Message   string
	CheckedAt time.Time

	LowSuccessRate  bool
	HighLatency     bool
	NoRecentSuccess bool
}

func (h *HealthStatus) IsHealthy() bool  { return h.Status == "OK" }
func (h *HealthStatus) IsDegraded() bool { return h.Status == "Degraded" }
func (h *HealthStatus) IsDown() bool     { return h.Status == "Down" }

// NoOpMetrics discards everything. Used when metrics export isn't wired
// (tests, local runs).
type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordProviderCall(method string, duration time.Duration, success bool) {}
func (n *NoOpMetrics) GetMetrics() *AggregatedMetrics                                         { return &AggregatedMetrics{} }
func (n *NoOpMetrics) GetMethodMetrics(method string) *MethodMetrics                          { return nil }
func (n *NoOpMetrics) GetHealthStatus() HealthStatus {
	return HealthStatus{Status: "OK", Message: "metrics disabled", CheckedAt: time.Now()}
}
func (n *NoOpMetrics) Export() string { return "" }
func (n *NoOpMetrics) Reset()         {}

var _ GatewayMetrics = (*NoOpMetrics)(nil)
