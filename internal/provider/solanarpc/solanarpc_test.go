package solanarpc

import (
	"encoding/json"
	"testing"
)

func TestName(t *testing.T) {
	a := New(nil, "")
	if a.Name() != "solana-rpc" {
		t.Fatalf("unexpected name %q", a.Name())
	}
}

func TestLamportsToSol(t *testing.T) {
	// ToCanonical caps fractional digits at min(decimals, 8), so Solana's
	// 9-decimal lamports round to 8 places here, not 9.
	if got := lamportsToSol(1_000_000_000); got != "1.00000000" {
		t.Fatalf("expected 1 SOL, got %q", got)
	}
	if got := lamportsToSol(0); got != "0.000000" {
		t.Fatalf("expected 0 SOL, got %q", got)
	}
}

func TestAccountKeyMatchesPlainString(t *testing.T) {
	raw, _ := json.Marshal("AddrA")
	if !accountKeyMatches(raw, "AddrA") {
		t.Fatalf("expected plain string match")
	}
	if accountKeyMatches(raw, "AddrB") {
		t.Fatalf("expected no match for different address")
	}
}

func TestAccountKeyMatchesPubkeyObject(t *testing.T) {
	raw, _ := json.Marshal(map[string]string{"pubkey": "AddrA"})
	if !accountKeyMatches(raw, "AddrA") {
		t.Fatalf("expected object-shaped match")
	}
}

func TestFirstOtherIncreasedAccount(t *testing.T) {
	a, _ := json.Marshal("Self")
	b, _ := json.Marshal("Other")
	keys := []json.RawMessage{a, b}
	pre := []uint64{100, 50}
	post := []uint64{50, 100}
	if got := firstOtherIncreasedAccount(keys, pre, post, 0); got != "Other" {
		t.Fatalf("expected Other, got %q", got)
	}
}
