// Package amount converts between raw chain-native integer units and the
// canonical decimal string representation the rest of the gateway works
// with, plus the handful of chain-specific address encoders the
// normalization layer needs (BCH CashAddr, Tron-to-EVM parameter padding).
package amount

import (
	"math/big"
	"strings"
)

// MissingDecimalsSentinel is returned by ToCanonical when neither a token
// nor a coin supplies decimals. It must never occur on a happy path; its
// presence in a test or a log is itself the bug report.
const MissingDecimalsSentinel = "-0.000000"

// Zero is the canonical zero-value rendering.
const Zero = "0.000000"

// ToCanonical renders raw (a base-10 integer or decimal string, never a
// float) into a canonical decimal string with at most min(decimals, 8)
// fractional digits. decimalsKnown must be false when neither a token
// whitelist entry nor the chain's CoinMeta supplied decimals; in that case
// the out-of-band sentinel is returned instead of a misleading "0".
func ToCanonical(raw string, decimals int, decimalsKnown bool, fromSmallestUnit bool) string {
	if !decimalsKnown {
		return MissingDecimalsSentinel
	}
	if raw == "" {
		return Zero
	}

	value, ok := new(big.Rat).SetString(raw)
	if !ok {
		return MissingDecimalsSentinel
	}
	if value.Sign() == 0 {
		return Zero
	}

	if fromSmallestUnit && decimals > 0 {
		divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
		value.Quo(value, new(big.Rat).SetInt(divisor))
	}

	frac := decimals
	if frac > 8 {
		frac = 8
	}
	return value.FloatString(frac)
}

// ToSmallestUnit is the inverse of ToCanonical: given a rendered decimal
// string and the chain's decimals, returns the integer smallest-unit value
// as a base-10 string. Used by the round-trip invariant tests and by
// adapters that must re-derive a raw value from a canonical Amount.
func ToSmallestUnit(canonical string, decimals int) (string, bool) {
	value, ok := new(big.Rat).SetString(canonical)
	if !ok {
		return "", false
	}
	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	value.Mul(value, new(big.Rat).SetInt(multiplier))
	if !value.IsInt() {
		return "", false
	}
	return value.Num().String(), true
}

// StripHexPrefix removes a leading "0x"/"0X" if present.
func StripHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}
