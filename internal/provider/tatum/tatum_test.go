package tatum

import (
	"math/big"
	"strings"
	"testing"
)

func TestStripBCHPrefix(t *testing.T) {
	cases := map[string]string{
		"bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a": "qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a",
		"qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a":            "qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a",
	}
	for in, want := range cases {
		if got := stripBCHPrefix(in); got != want {
			t.Errorf("stripBCHPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUTXOFamilyBalanceReconciliation(t *testing.T) {
	// confirmed = incoming - outgoing; display = confirmed + incomingPending;
	// outgoingPending > 0 means it is NOT subtracted.
	confirmed := 5.0 - 2.0
	withPendingIn := confirmed + 1.0
	if withPendingIn != 4.0 {
		t.Fatalf("expected 4.0, got %v", withPendingIn)
	}
}

func TestRatOr0(t *testing.T) {
	if ratOr0("").Sign() != 0 {
		t.Fatalf("expected 0 for empty string")
	}
	if ratOr0("not-a-number").Sign() != 0 {
		t.Fatalf("expected 0 for malformed input")
	}
	if got := ratOr0("3.5").FloatString(1); got != "3.5" {
		t.Fatalf("expected 3.5, got %s", got)
	}
}

func TestUTXOFamilyBalanceReconciliationUsesExactArithmetic(t *testing.T) {
	confirmed := new(big.Rat).Sub(ratOr0("5"), ratOr0("2"))
	final := new(big.Rat).Add(confirmed, ratOr0("1"))
	if final.FloatString(8) != "4.00000000" {
		t.Fatalf("expected 4.00000000, got %s", final.FloatString(8))
	}
}

func TestScriptSigAsmPubkeyExtraction(t *testing.T) {
	// Mirrors fetchBCHTransfer's trailing-field extraction: the last
	// whitespace-delimited asm field is the spending pubkey when its hex
	// length is the 66 characters of a compressed key.
	asm := "3045022100d5... 0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	fields := strings.Fields(asm)
	last := fields[len(fields)-1]
	if len(last) != 66 {
		t.Fatalf("expected a 66-hex-char compressed pubkey, got length %d", len(last))
	}
}

func TestAbsFloat(t *testing.T) {
	if absFloat(-2.5) != 2.5 {
		t.Fatalf("expected 2.5")
	}
	if absFloat(2.5) != 2.5 {
		t.Fatalf("expected 2.5")
	}
}
