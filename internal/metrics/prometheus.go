package metrics

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// PrometheusMetrics implements GatewayMetrics with a hand-rolled
// Prometheus-compatible text exporter. No client_golang import: this
// records a small, fixed set of counters/gauges per method, which a
// from-scratch text writer expresses as directly as a full client library
// would.
type PrometheusMetrics struct {
	mu sync.RWMutex

	perMethod map[string]*methodStats

	totalCalls         int64
	successfulCalls    int64
	failedCalls        int64
	lastSuccessfulCall time.Time
}

type methodStats struct {
	totalCalls         int64
	successfulCalls    int64
	failedCalls        int64
	totalDuration      time.Duration
	minDuration        time.Duration
	maxDuration        time.Duration
	lastSuccessfulCall time.Time
	lastFailedCall     time.Time
}

func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{perMethod: make(map[string]*methodStats)}
}

func (p *PrometheusMetrics) RecordProviderCall(method string, duration time.Duration, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalCalls++
	if success {
		p.successfulCalls++
		p.lastSuccessfulCall = time.Now()
	} else {
		p.failedCalls++
	}

	stats, exists := p.perMethod[method]
	if !exists {
		stats = &methodStats{minDuration: duration, maxDuration: duration}
		p.perMethod[method] = stats
	}

	stats.totalCalls++
	stats.totalDuration += duration
	if success {
		stats.successfulCalls++
		stats.lastSuccessfulCall = time.Now()
	} else {
		stats.failedCalls++
		stats.lastFailedCall = time.Now()
	}
	if duration < stats.minDuration || stats.minDuration == 0 {
		stats.minDuration = duration
	}
	if duration > stats.maxDuration {
		stats.maxDuration = duration
	}
}

func (p *PrometheusMetrics) GetMetrics() *AggregatedMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var totalDuration time.Duration
	for _, stats := range p.perMethod {
		totalDuration += stats.totalDuration
	}

	successRate := 0.0
	if p.totalCalls > 0 {
		successRate = float64(p.successfulCalls) / float64(p.totalCalls)
	}
	avgDuration := time.Duration(0)
	if p.totalCalls > 0 {
		avgDuration = totalDuration / time.Duration(p.totalCalls)
	}

	return &AggregatedMetrics{
		TotalCalls:         p.totalCalls,
		SuccessfulCalls:    p.successfulCalls,
		FailedCalls:        p.failedCalls,
		SuccessRate:        successRate,
		AvgDuration:        avgDuration,
		LastSuccessfulCall: p.lastSuccessfulCall,
	}
}

func (p *PrometheusMetrics) GetMethodMetrics(method string) *MethodMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats, exists := p.perMethod[method]
	if !exists {
		return nil
	}

	successRate := 0.0
	if stats.totalCalls > 0 {
		successRate = float64(stats.successfulCalls) / float64(stats.totalCalls)
	}
	avgDuration := time.Duration(0)
	if stats.totalCalls > 0 {
		avgDuration = stats.totalDuration / time.Duration(stats.totalCalls)
	}

	return &MethodMetrics{
		Method:             method,
		TotalCalls:         stats.totalCalls,
		SuccessfulCalls:    stats.successfulCalls,
		FailedCalls:        stats.failedCalls,
		SuccessRate:        successRate,
		AvgDuration:        avgDuration,
		MinDuration:        stats.minDuration,
		MaxDuration:        stats.maxDuration,
		LastSuccessfulCall: stats.lastSuccessfulCall,
		LastFailedCall:     stats.lastFailedCall,
	}
}

func (p *PrometheusMetrics) GetHealthStatus() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.healthStatusLocked()
}

// healthStatusLocked assumes the caller already holds p.mu.
func (p *PrometheusMetrics) healthStatusLocked() HealthStatus {
	status := HealthStatus{CheckedAt: time.Now()}

	successRate := 0.0
	if p.totalCalls > 0 {
		successRate = float64(p.successfulCalls) / float64(p.totalCalls)
	}

	var totalDuration time.Duration
	for _, stats := range p.perMethod {
		totalDuration += stats.totalDuration
	}
	avgDuration := time.Duration(0)
	if p.totalCalls > 0 {
		avgDuration = totalDuration / time.Duration(p.totalCalls)
	}

	status.LowSuccessRate = successRate < 0.90 && p.totalCalls > 0
	status.HighLatency = avgDuration > 5*time.Second
	status.NoRecentSuccess = !p.lastSuccessfulCall.IsZero() && time.Since(p.lastSuccessfulCall) > 5*time.Minute

	if p.totalCalls == 0 {
		status.Status = "OK"
		status.Message = "no provider calls recorded yet"
		return status
	}

	if status.LowSuccessRate || status.HighLatency || status.NoRecentSuccess {
		status.Status = "Degraded"
		var messages []string
		if status.LowSuccessRate {
			messages = append(messages, fmt.Sprintf("low success rate (%.1f%%)", successRate*100))
		}
		if status.HighLatency {
			messages = append(messages, fmt.Sprintf("high latency (%v)", avgDuration))
		}
		if status.NoRecentSuccess {
			messages = append(messages, fmt.Sprintf("no recent success (%v ago)", time.Since(p.lastSuccessfulCall)))
		}
		status.Message = strings.Join(messages, ", ")
		return status
	}

	status.Status = "OK"
	status.Message = fmt.Sprintf("success rate: %.1f%%, avg latency: %v", successRate*100, avgDuration)
	return status
}

// Export returns metrics in Prometheus text format.
func (p *PrometheusMetrics) Export() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var sb strings.Builder

	sb.WriteString("# HELP gateway_provider_calls_total Total number of upstream provider calls\n")
	sb.WriteString("# TYPE gateway_provider_calls_total counter\n")
	for method, stats := range p.perMethod {
		sb.WriteString(fmt.Sprintf("gateway_provider_calls_total{method=\"%s\",status=\"success\"} %d\n", method, stats.successfulCalls))
		sb.WriteString(fmt.Sprintf("gateway_provider_calls_total{method=\"%s\",status=\"failure\"} %d\n", method, stats.failedCalls))
	}
	sb.WriteString("\n")

	sb.WriteString("# HELP gateway_provider_duration_seconds Upstream provider call duration\n")
	sb.WriteString("# TYPE gateway_provider_duration_seconds summary\n")
	for method, stats := range p.perMethod {
		if stats.totalCalls == 0 {
			continue
		}
		avgSec := stats.totalDuration.Seconds() / float64(stats.totalCalls)
		sb.WriteString(fmt.Sprintf("gateway_provider_duration_seconds{method=\"%s\",quantile=\"avg\"} %.6f\n", method, avgSec))
		sb.WriteString(fmt.Sprintf("gateway_provider_duration_seconds{method=\"%s\",quantile=\"min\"} %.6f\n", method, stats.minDuration.Seconds()))
		sb.WriteString(fmt.Sprintf("gateway_provider_duration_seconds{method=\"%s\",quantile=\"max\"} %.6f\n", method, stats.maxDuration.Seconds()))
	}
	sb.WriteString("\n")

	health := p.healthStatusLocked()
	healthValue := 0.0
	switch health.Status {
	case "OK":
		healthValue = 1.0
	case "Degraded":
		healthValue = 0.5
	}
	sb.WriteString("# HELP gateway_health_status Health status (1=OK, 0.5=Degraded, 0=Down)\n")
	sb.WriteString("# TYPE gateway_health_status gauge\n")
	sb.WriteString(fmt.Sprintf("gateway_health_status %.1f\n", healthValue))

	return sb.String()
}

func (p *PrometheusMetrics) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.perMethod = make(map[string]*methodStats)
	p.totalCalls = 0
	p.successfulCalls = 0
	p.failedCalls = 0
	p.lastSuccessfulCall = time.Time{}
}

var _ GatewayMetrics = (*PrometheusMetrics)(nil)
