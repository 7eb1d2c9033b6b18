package amount

import (
	"encoding/hex"
	"testing"
)

func TestToCanonicalZero(t *testing.T) {
	got := ToCanonical("0", 18, true, true)
	if got != Zero {
		t.Fatalf("expected %q, got %q", Zero, got)
	}
}

func TestToCanonicalMissingDecimals(t *testing.T) {
	got := ToCanonical("100", 0, false, true)
	if got != MissingDecimalsSentinel {
		t.Fatalf("expected sentinel, got %q", got)
	}
}

func TestToCanonicalEmptyRaw(t *testing.T) {
	got := ToCanonical("", 8, true, true)
	if got != Zero {
		t.Fatalf("expected %q, got %q", Zero, got)
	}
}

func TestToCanonicalEthWei(t *testing.T) {
	got := ToCanonical("1000000000000000000", 18, true, true)
	if got != "1.00000000" {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestToCanonicalUSDT(t *testing.T) {
	got := ToCanonical("5500000", 6, true, true)
	if got != "5.500000" {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	rendered := ToCanonical("123456789", 8, true, true)
	smallest, ok := ToSmallestUnit(rendered, 8)
	if !ok {
		t.Fatalf("round trip failed to parse back: %q", rendered)
	}
	if smallest != "123456789" {
		t.Fatalf("round trip mismatch: got %q", smallest)
	}
	rendered2 := ToCanonical(smallest, 8, true, true)
	if rendered2 != rendered {
		t.Fatalf("round trip rendering mismatch: %q vs %q", rendered, rendered2)
	}
}

func TestCashAddrKnownVector(t *testing.T) {
	// F5BF48B397DAE70BE82B3CCA4793F8EB2B6CDAC9 is a published CashAddr
	// P2PKH test vector; the checksum is the discriminator so this asserts
	// the full rendered address, not just the prefix.
	hash160, err := hex.DecodeString("F5BF48B397DAE70BE82B3CCA4793F8EB2B6CDAC9")
	if err != nil {
		t.Fatalf("bad test vector hex: %v", err)
	}
	const want = "bitcoincash:qr6m7j9njldwwzlg9v7v53unlr4jkmx6eylep8ekg2"
	if got := encodeCashAddrP2PKH(hash160); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAddressFromPubkeyBCHKnownHash160(t *testing.T) {
	// Compressed secp256k1 generator-point pubkey; its hash160 is
	// 751e76e8199196d454941c45d1b3a323f1433bd6.
	addr, err := AddressFromPubkeyBCH("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash160, _ := hex.DecodeString("751e76e8199196d454941c45d1b3a323f1433bd6")
	want := encodeCashAddrP2PKH(hash160)
	if addr != want {
		t.Fatalf("expected %q, got %q", want, addr)
	}
}

func TestTronAddressToEvmParameter(t *testing.T) {
	// TUEZSdKsoDHQMeZwihtdoBiN46zxhGWYdH is a syntactically valid
	// base58check Tron address (0x41 prefix) used to exercise padding.
	got, err := TronAddressToEvmParameter("TUEZSdKsoDHQMeZwihtdoBiN46zxhGWYdH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d: %s", len(got), got)
	}
}
