package suirpc

import (
	"testing"
	"time"
)

func TestNewWithNoEndpointsLeavesClientNil(t *testing.T) {
	a := New(nil, nil, nil, 5*time.Second)
	if a.client != nil {
		t.Fatalf("expected nil client when no endpoints are configured")
	}
}

func TestNewWithEndpointsBuildsClient(t *testing.T) {
	a := New([]string{"https://a.example", "https://b.example"}, nil, nil, 5*time.Second)
	if a.client == nil {
		t.Fatalf("expected a client to be built from configured endpoints")
	}
}

func TestSuiCoinTypeConstant(t *testing.T) {
	if suiCoinType != "0x2::sui::SUI" {
		t.Fatalf("unexpected coin type %q", suiCoinType)
	}
}
