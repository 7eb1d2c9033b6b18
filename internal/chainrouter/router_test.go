package chainrouter

import (
	"context"
	"errors"
	"testing"

	"github.com/watchwallet/gateway/internal/provider"
	"github.com/watchwallet/gateway/internal/registry"
)

type stubBalanceAdapter struct {
	name   string
	result provider.BalanceResult
	err    error
}

func (s *stubBalanceAdapter) Name() string { return s.name }

func (s *stubBalanceAdapter) GetBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.BalanceResult, error) {
	return s.result, s.err
}

func TestDispatchBalanceFallsBackOnFailure(t *testing.T) {
	r := New()
	r.Register("ethereum", OpBalance, Entry{Adapter: &stubBalanceAdapter{name: "first", err: errors.New("boom")}})
	r.Register("ethereum", OpBalance, Entry{Adapter: &stubBalanceAdapter{name: "second", result: provider.BalanceResult{Balance: "1.0"}}})

	result, err := r.DispatchBalance(context.Background(), "ethereum", "0xabc", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Balance != "1.0" {
		t.Fatalf("expected fallback adapter's result, got %q", result.Balance)
	}
}

func TestDispatchBalanceNoRoute(t *testing.T) {
	r := New()
	_, err := r.DispatchBalance(context.Background(), "unknown", "addr", "")
	var noRoute *ErrNoRoute
	if !errors.As(err, &noRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

type stubResourceAdapter struct {
	name string
	res  map[string]interface{}
}

func (s *stubResourceAdapter) Name() string { return s.name }

func (s *stubResourceAdapter) GetResource(ctx context.Context, address string) (map[string]interface{}, error) {
	return s.res, nil
}

type stubFeeAdapter struct {
	quote provider.FeeQuote
}

func (s *stubFeeAdapter) Name() string { return "fee" }

func (s *stubFeeAdapter) GetFee(ctx context.Context, chain registry.ChainKey) (provider.FeeQuote, error) {
	return s.quote, nil
}

func TestDispatchResourceMergesFeeConstantsEvenWithoutProvider(t *testing.T) {
	r := New()
	r.Register("bitcoin", OpFee, Entry{Adapter: &stubFeeAdapter{quote: provider.FeeQuote{Slow: "1", Medium: "2", Fast: "3"}}})

	result, err := r.DispatchResource(context.Background(), "bitcoin", "addr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Resource == nil {
		t.Fatalf("expected a non-nil empty resource map when no ResourceProvider is registered")
	}
	if result.FeeConstants.Medium != "2" {
		t.Fatalf("expected fee constants from the registered FeeProvider, got %+v", result.FeeConstants)
	}
}

func TestDispatchResourceUsesRegisteredProvider(t *testing.T) {
	r := New()
	r.Register("tron", OpResource, Entry{Adapter: &stubResourceAdapter{name: "trongrid", res: map[string]interface{}{"energy": int64(100)}}})

	result, err := r.DispatchResource(context.Background(), "tron", "addr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Resource["energy"] != int64(100) {
		t.Fatalf("expected resource map from registered provider, got %v", result.Resource)
	}
}
