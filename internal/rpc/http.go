// JSON-RPC framing over Client, for the adapters that speak native
// chain JSON-RPC (EVM nodes, Sui, Rostrum) rather than REST.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// JSONRPCHTTPClient implements JSONRPCClient over a shared Client, with
// round-robin + health-aware failover across a provider's own mirror
// endpoints (distinct from ProviderRunner's cross-provider fallback, which
// the ChainRouter governs).
type JSONRPCHTTPClient struct {
	endpoints     []string
	currentIndex  int
	healthTracker HealthTracker
	transport     *Client
	requestID     atomic.Int64
	mu            sync.RWMutex
}

// NewJSONRPCHTTPClient builds a JSON-RPC client with endpoint failover.
func NewJSONRPCHTTPClient(endpoints []string, timeout time.Duration, healthTracker HealthTracker) (*JSONRPCHTTPClient, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one RPC endpoint is required")
	}
	if healthTracker == nil {
		healthTracker = NewSimpleHealthTracker()
	}
	return &JSONRPCHTTPClient{
		endpoints:     endpoints,
		healthTracker: healthTracker,
		transport:     NewClient(timeout),
	}, nil
}

func (c *JSONRPCHTTPClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	request := RPCRequest{Method: method, Params: params}

	var lastErr error
	attempted := make(map[string]bool)
	for len(attempted) < len(c.endpoints) {
		endpoint := c.getNextHealthyEndpoint(attempted)
		if endpoint == "" {
			break
		}
		attempted[endpoint] = true

		result, err := c.callEndpoint(ctx, endpoint, request)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all RPC endpoints failed, last error: %w", lastErr)
}

func (c *JSONRPCHTTPClient) CallBatch(ctx context.Context, requests []RPCRequest) ([]json.RawMessage, error) {
	if len(requests) == 0 {
		return []json.RawMessage{}, nil
	}

	var lastErr error
	attempted := make(map[string]bool)
	for len(attempted) < len(c.endpoints) {
		endpoint := c.getNextHealthyEndpoint(attempted)
		if endpoint == "" {
			break
		}
		attempted[endpoint] = true

		results, err := c.callBatchEndpoint(ctx, endpoint, requests)
		if err == nil {
			return results, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all RPC endpoints failed for batch request, last error: %w", lastErr)
}

func (c *JSONRPCHTTPClient) Close() error {
	c.transport.Close()
	return nil
}

func (c *JSONRPCHTTPClient) callEndpoint(ctx context.Context, endpoint string, request RPCRequest) (json.RawMessage, error) {
	start := time.Now()

	reqID := c.requestID.Add(1)
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0", "id": reqID, "method": request.Method, "params": request.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.transport.Do(ctx, "POST", endpoint, map[string]string{"Content-Type": "application/json"}, bytes.NewReader(body), 0)
	if err != nil {
		c.healthTracker.RecordFailure(endpoint, err)
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.Classification != Ok {
		c.healthTracker.RecordFailure(endpoint, fmt.Errorf("http %d", resp.Status))
		return nil, fmt.Errorf("http error %d: %s", resp.Status, string(resp.Body))
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(resp.Body, &rpcResp); err != nil {
		c.healthTracker.RecordFailure(endpoint, err)
		return nil, fmt.Errorf("parse json-rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		c.healthTracker.RecordFailure(endpoint, rpcResp.Error)
		return nil, fmt.Errorf("json-rpc error: %s", rpcResp.Error.Message)
	}

	c.healthTracker.RecordSuccess(endpoint, time.Since(start).Milliseconds())
	return rpcResp.Result, nil
}

func (c *JSONRPCHTTPClient) callBatchEndpoint(ctx context.Context, endpoint string, requests []RPCRequest) ([]json.RawMessage, error) {
	start := time.Now()

	batch := make([]map[string]interface{}, len(requests))
	for i, req := range requests {
		reqID := c.requestID.Add(1)
		batch[i] = map[string]interface{}{
			"jsonrpc": "2.0", "id": reqID, "method": req.Method, "params": req.Params,
		}
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal batch request: %w", err)
	}

	resp, err := c.transport.Do(ctx, "POST", endpoint, map[string]string{"Content-Type": "application/json"}, bytes.NewReader(body), 0)
	if err != nil {
		c.healthTracker.RecordFailure(endpoint, err)
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.Classification != Ok {
		c.healthTracker.RecordFailure(endpoint, fmt.Errorf("http %d", resp.Status))
		return nil, fmt.Errorf("http error %d", resp.Status)
	}

	var batchResp []RPCResponse
	if err := json.Unmarshal(resp.Body, &batchResp); err != nil {
		c.healthTracker.RecordFailure(endpoint, err)
		return nil, fmt.Errorf("parse batch response: %w", err)
	}

	results := make([]json.RawMessage, len(batchResp))
	for i, r := range batchResp {
		if r.Error == nil {
			results[i] = r.Result
		}
	}

	c.healthTracker.RecordSuccess(endpoint, time.Since(start).Milliseconds())
	return results, nil
}

func (c *JSONRPCHTTPClient) getNextHealthyEndpoint(attempted map[string]bool) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < len(c.endpoints); i++ {
		idx := (c.currentIndex + i) % len(c.endpoints)
		endpoint := c.endpoints[idx]
		if attempted[endpoint] {
			continue
		}
		if c.healthTracker.IsHealthy(endpoint) {
			c.currentIndex = (idx + 1) % len(c.endpoints)
			return endpoint
		}
	}
	for _, endpoint := range c.endpoints {
		if !attempted[endpoint] {
			return endpoint
		}
	}
	return ""
}
