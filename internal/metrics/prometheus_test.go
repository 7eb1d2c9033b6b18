package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestPrometheusMetrics_RecordProviderCall(t *testing.T) {
	m := NewPrometheusMetrics()

	m.RecordProviderCall("eth_getTransactionCount", 100*time.Millisecond, true)
	m.RecordProviderCall("eth_getTransactionCount", 150*time.Millisecond, true)
	m.RecordProviderCall("eth_getTransactionCount", 200*time.Millisecond, false)
	m.RecordProviderCall("eth_estimateGas", 50*time.Millisecond, true)

	agg := m.GetMetrics()

	if agg.TotalCalls != 4 {
		t.Errorf("expected 4 total calls, got %d", agg.TotalCalls)
	}
	if agg.SuccessfulCalls != 3 {
		t.Errorf("expected 3 successful calls, got %d", agg.SuccessfulCalls)
	}
	if agg.FailedCalls != 1 {
		t.Errorf("expected 1 failed call, got %d", agg.FailedCalls)
	}

	expectedRate := 3.0 / 4.0
	if agg.SuccessRate != expectedRate {
		t.Errorf("expected success rate %.2f, got %.2f", expectedRate, agg.SuccessRate)
	}

	expectedAvg := 125 * time.Millisecond
	if agg.AvgDuration != expectedAvg {
		t.Errorf("expected avg duration %v, got %v", expectedAvg, agg.AvgDuration)
	}

	if time.Since(agg.LastSuccessfulCall) > time.Second {
		t.Errorf("LastSuccessfulCall should be recent, got %v", agg.LastSuccessfulCall)
	}
}

func TestPrometheusMetrics_GetMethodMetrics(t *testing.T) {
	m := NewPrometheusMetrics()

	m.RecordProviderCall("eth_getTransactionCount", 100*time.Millisecond, true)
	m.RecordProviderCall("eth_getTransactionCount", 200*time.Millisecond, true)
	m.RecordProviderCall("eth_getTransactionCount", 150*time.Millisecond, false)

	mm := m.GetMethodMetrics("eth_getTransactionCount")
	if mm == nil {
		t.Fatal("expected method metrics, got nil")
	}

	if mm.TotalCalls != 3 {
		t.Errorf("expected 3 calls, got %d", mm.TotalCalls)
	}
	if mm.MinDuration != 100*time.Millisecond {
		t.Errorf("expected min duration 100ms, got %v", mm.MinDuration)
	}
	if mm.MaxDuration != 200*time.Millisecond {
		t.Errorf("expected max duration 200ms, got %v", mm.MaxDuration)
	}

	if m.GetMethodMetrics("unseen_method") != nil {
		t.Error("expected nil for unseen method")
	}
}

func TestPrometheusMetrics_HealthStatus(t *testing.T) {
	t.Run("healthy with no calls", func(t *testing.T) {
		m := NewPrometheusMetrics()
		health := m.GetHealthStatus()
		if !health.IsHealthy() {
			t.Errorf("expected OK status with no calls, got %s", health.Status)
		}
	})

	t.Run("degraded on low success rate", func(t *testing.T) {
		m := NewPrometheusMetrics()
		for i := 0; i < 80; i++ {
			m.RecordProviderCall("test_method", 100*time.Millisecond, true)
		}
		for i := 0; i < 20; i++ {
			m.RecordProviderCall("test_method", 100*time.Millisecond, false)
		}

		health := m.GetHealthStatus()
		if !health.IsDegraded() {
			t.Errorf("expected Degraded status, got %s", health.Status)
		}
		if !health.LowSuccessRate {
			t.Error("LowSuccessRate should be true")
		}
	})

	t.Run("degraded on high latency", func(t *testing.T) {
		m := NewPrometheusMetrics()
		for i := 0; i < 10; i++ {
			m.RecordProviderCall("test_method", 6*time.Second, true)
		}

		health := m.GetHealthStatus()
		if !health.HighLatency {
			t.Error("HighLatency should be true")
		}
		if !strings.Contains(health.Message, "high latency") {
			t.Errorf("message should mention high latency, got: %s", health.Message)
		}
	})

	t.Run("degraded on stale success", func(t *testing.T) {
		m := NewPrometheusMetrics()
		m.RecordProviderCall("test_method", 100*time.Millisecond, true)

		m.mu.Lock()
		m.lastSuccessfulCall = time.Now().Add(-10 * time.Minute)
		m.mu.Unlock()

		health := m.GetHealthStatus()
		if !health.NoRecentSuccess {
			t.Error("NoRecentSuccess should be true")
		}
	})
}

func TestPrometheusMetrics_Export(t *testing.T) {
	m := NewPrometheusMetrics()

	m.RecordProviderCall("eth_getTransactionCount", 100*time.Millisecond, true)
	m.RecordProviderCall("eth_getTransactionCount", 150*time.Millisecond, false)
	m.RecordProviderCall("eth_estimateGas", 50*time.Millisecond, true)

	exported := m.Export()

	if !strings.Contains(exported, "gateway_provider_calls_total") {
		t.Error("export should contain provider call counters")
	}
	if !strings.Contains(exported, `method="eth_getTransactionCount",status="success"} 1`) {
		t.Error("export should contain eth_getTransactionCount success count")
	}
	if !strings.Contains(exported, "gateway_provider_duration_seconds") {
		t.Error("export should contain duration summary")
	}
	if !strings.Contains(exported, "gateway_health_status") {
		t.Error("export should contain health gauge")
	}
}

func TestPrometheusMetrics_Reset(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordProviderCall("eth_getTransactionCount", 100*time.Millisecond, true)

	m.Reset()

	agg := m.GetMetrics()
	if agg.TotalCalls != 0 {
		t.Errorf("expected 0 calls after reset, got %d", agg.TotalCalls)
	}
	if !agg.LastSuccessfulCall.IsZero() {
		t.Error("expected zero time for LastSuccessfulCall after reset")
	}
}

func TestNoOpMetrics_DoesNothing(t *testing.T) {
	m := &NoOpMetrics{}

	m.RecordProviderCall("test", 100*time.Millisecond, true)
	m.Reset()

	agg := m.GetMetrics()
	if agg == nil || agg.TotalCalls != 0 {
		t.Error("NoOpMetrics should return zero metrics")
	}
	if m.GetMethodMetrics("test") != nil {
		t.Error("NoOpMetrics should return nil for GetMethodMetrics")
	}
	if m.GetHealthStatus().Status != "OK" {
		t.Error("NoOpMetrics should report OK")
	}
	if m.Export() != "" {
		t.Error("NoOpMetrics should export an empty string")
	}
}

func TestPrometheusMetrics_ConcurrentAccess(t *testing.T) {
	m := NewPrometheusMetrics()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				m.RecordProviderCall("test_method", 10*time.Millisecond, true)
				_ = m.GetMetrics()
				_ = m.GetHealthStatus()
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	agg := m.GetMetrics()
	if agg.TotalCalls != 1000 {
		t.Errorf("expected 1000 calls, got %d", agg.TotalCalls)
	}
	if agg.SuccessRate != 1.0 {
		t.Errorf("expected 100%% success rate, got %.2f", agg.SuccessRate*100)
	}
}
