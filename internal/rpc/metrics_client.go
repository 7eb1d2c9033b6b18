package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/watchwallet/gateway/internal/metrics"
)

// MetricsJSONRPCClient wraps a JSONRPCClient and records call metrics
// transparently.
type MetricsJSONRPCClient struct {
	client  JSONRPCClient
	metrics metrics.GatewayMetrics
}

func NewMetricsJSONRPCClient(client JSONRPCClient, recorder metrics.GatewayMetrics) *MetricsJSONRPCClient {
	return &MetricsJSONRPCClient{client: client, metrics: recorder}
}

func (m *MetricsJSONRPCClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	start := time.Now()
	result, err := m.client.Call(ctx, method, params)
	m.metrics.RecordProviderCall(method, time.Since(start), err == nil)
	return result, err
}

// CallBatch records one metric per request in the batch, using the
// averaged per-request duration since the underlying transport does not
// report individual completion times.
func (m *MetricsJSONRPCClient) CallBatch(ctx context.Context, requests []RPCRequest) ([]json.RawMessage, error) {
	start := time.Now()
	results, err := m.client.CallBatch(ctx, requests)
	duration := time.Since(start)

	avg := duration
	if len(requests) > 0 {
		avg = duration / time.Duration(len(requests))
	}
	for _, req := range requests {
		m.metrics.RecordProviderCall(req.Method, avg, err == nil)
	}

	return results, err
}

func (m *MetricsJSONRPCClient) Close() error { return m.client.Close() }

var _ JSONRPCClient = (*MetricsJSONRPCClient)(nil)
