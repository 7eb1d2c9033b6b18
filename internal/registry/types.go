// Package registry holds the read-only coin and token descriptor tables the
// rest of the gateway resolves chain metadata from. It is loaded once at
// process start and never mutated afterward.
package registry

// Curve is the signature curve a chain's addresses are derived from. The
// gateway never signs anything; it keeps this field only because other
// components (AmountCodec's address encoders) key behavior off it.
type Curve string

const (
	CurveSecp256k1 Curve = "secp256k1"
	CurveEd25519   Curve = "ed25519"
)

// ChainKey is the opaque identifier used throughout the gateway to select
// a ChainRouter entry, e.g. "ethereum", "ton", "ripple".
type ChainKey string

// CoinMeta describes one chain's native coin. Loaded once at boot,
// read-only for the process lifetime.
type CoinMeta struct {
	ID         ChainKey
	Symbol     string
	Name       string
	Decimals   int
	Curve      Curve
	Blockchain string
	ChainID    *int
}

// TokenMeta describes one whitelisted token contract on a chain.
type TokenMeta struct {
	Coin     ChainKey
	Symbol   string
	Name     string
	Contract string
	Decimals int
}
