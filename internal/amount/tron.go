package amount

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// tronAddressPrefix is the one-byte version marker Tron base58check
// addresses carry before the 20-byte account hash.
const tronAddressPrefix = 0x41

// TronAddressToEvmParameter Base58Check-decodes a Tron address, drops the
// leading 0x41 prefix byte and the trailing 4-byte checksum, and left-pads
// the remaining 20 bytes to 32 bytes (64 hex chars) for use as an ABI
// positional contract-call argument.
func TronAddressToEvmParameter(addr string) (string, error) {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return "", fmt.Errorf("base58 decode: %w", err)
	}
	if len(decoded) < 25 {
		return "", fmt.Errorf("decoded tron address too short: %d bytes", len(decoded))
	}
	payload := decoded[:len(decoded)-4] // strip 4-byte checksum
	if len(payload) == 0 || payload[0] != tronAddressPrefix {
		return "", fmt.Errorf("unexpected tron address prefix byte 0x%02x", payload[0])
	}
	accountHash := payload[1:]

	padded := make([]byte, 32)
	copy(padded[32-len(accountHash):], accountHash)

	return fmt.Sprintf("%x", padded), nil
}
