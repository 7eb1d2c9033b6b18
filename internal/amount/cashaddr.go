package amount

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

const cashAddrPrefix = "bitcoincash"
const cashAddrCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// prefixExpansion5bit is the fixed 5-bit expansion of the prefix string
// used as part of the polymod checksum input. Pinned bit-exact per
// spec.md §4.2.
var prefixExpansion5bit = []byte{2, 9, 20, 3, 15, 9, 14, 3, 1, 19, 8, 0}

// AddressFromPubkeyBCH implements CashAddr encoding: btcutil's Hash160
// (SHA-256 then RIPEMD-160) for the P2PKH payload, then 5-bit repacking
// and a BCH-polymod checksum with prefix "bitcoincash" — CashAddr's
// checksum scheme is BCH-specific and has no btcutil equivalent, so that
// part is hand-rolled from the literal bit-exact contract. pubkeyHex is
// the compressed or uncompressed public key in hex.
func AddressFromPubkeyBCH(pubkeyHex string) (string, error) {
	pub, err := hex.DecodeString(strings.TrimPrefix(pubkeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("decode pubkey: %w", err)
	}

	return encodeCashAddrP2PKH(btcutil.Hash160(pub)), nil
}

// encodeCashAddrP2PKH encodes a 160-bit P2PKH hash as a CashAddr string.
// Split out from AddressFromPubkeyBCH so the checksum/repacking logic can
// be exercised directly against a known hash160 vector in tests.
func encodeCashAddrP2PKH(hash160 []byte) string {
	// version byte 0x00 = P2PKH, hash size bits = 0 for 160-bit hash
	payload := append([]byte{0x00}, hash160...)
	payload5 := convertBits(payload, 8, 5, true)

	checksumInput := append(append([]byte{}, prefixExpansion5bit...), payload5...)
	checksumInput = append(checksumInput, make([]byte, 8)...)
	mod := polymod(checksumInput)

	checksum := make([]byte, 8)
	for i := 0; i < 8; i++ {
		checksum[i] = byte((mod >> uint(5*(7-i))) & 0x1f)
	}

	var sb strings.Builder
	sb.WriteString(cashAddrPrefix)
	sb.WriteString(":")
	for _, b := range payload5 {
		sb.WriteByte(cashAddrCharset[b])
	}
	for _, b := range checksum {
		sb.WriteByte(cashAddrCharset[b])
	}
	return sb.String()
}

func convertBits(data []byte, fromBits, toBits uint, pad bool) []byte {
	acc := 0
	bits := uint(0)
	var out []byte
	maxv := (1 << toBits) - 1
	for _, value := range data {
		acc = (acc << fromBits) | int(value)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}
	if pad && bits > 0 {
		out = append(out, byte((acc<<(toBits-bits))&maxv))
	}
	return out
}

func polymod(values []byte) uint64 {
	const mask = uint64(0x07ffffffff)
	generator := [5]uint64{0x98f2bc8e61, 0x79b76d99e2, 0xf33e5fb3c4, 0xae2eabe2a8, 0x1e4f43e470}

	chk := uint64(1)
	for _, v := range values {
		top := chk >> 35
		chk = ((chk & mask) << 5) ^ uint64(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 != 0 {
				chk ^= generator[i]
			}
		}
	}
	return chk ^ 1
}
