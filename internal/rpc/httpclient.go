package rpc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Classification is the four-way outcome bucket the gateway's own HttpClient
// wrapper reduces every REST and JSON-RPC response to, per spec.md §4.3.
type Classification int

const (
	// Ok is any 2xx response.
	Ok Classification = iota
	// RateLimited is a 429; RetryAfter carries the header value when the
	// upstream supplied one.
	RateLimited
	// TransientServer is a 500/502/503/504, connection reset, or timeout;
	// eligible for retry by the ProviderRunner.
	TransientServer
	// Fatal is any other non-2xx status; no retry. Do does not parse
	// response bodies, so a body that fails to decode is reported by the
	// caller, not classified here.
	Fatal
)

// Response is the outcome of a single Client.Do call.
type Response struct {
	Classification Classification
	Status         int
	Body           []byte
	RetryAfter     time.Duration
}

// Client is the single shared HTTP transport every provider adapter issues
// requests through. It never retries itself — ProviderRunner owns retry —
// it only classifies the outcome so the runner can decide.
type Client struct {
	http *http.Client
}

// NewClient builds a Client with the given default timeout. Individual
// calls may pass a shorter deadline via ctx; the client-level timeout is a
// backstop.
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Do issues one HTTP request and classifies the outcome. It never returns a
// non-nil error for a well-formed HTTP round trip, even on 4xx/5xx — the
// Classification communicates that. A non-nil error means the request
// could not be built (returned with a zero Response) or the transport
// failed outright, e.g. context cancellation (returned with Classification
// TransientServer).
func (c *Client) Do(ctx context.Context, method, url string, headers map[string]string, body io.Reader, timeout time.Duration) (Response, error) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return Response{}, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.Canceled) {
			return Response{Classification: TransientServer}, err
		}
		return Response{Classification: TransientServer}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Classification: TransientServer, Status: resp.StatusCode}, err
	}

	out := Response{Status: resp.StatusCode, Body: data}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		out.Classification = Ok
	case resp.StatusCode == http.StatusTooManyRequests:
		out.Classification = RateLimited
		out.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case resp.StatusCode == 500 || resp.StatusCode == 502 || resp.StatusCode == 503 || resp.StatusCode == 504:
		out.Classification = TransientServer
	default:
		out.Classification = Fatal
	}

	return out, nil
}

// Close releases idle transport connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		return time.Until(when)
	}
	return 0
}
