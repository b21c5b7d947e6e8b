package dangotest

import (
	"crypto/sha256"
	"fmt"

	"github.com/cosmos/btcutil/bech32"

	"github.com/blockberries/dango/types"
)

// AddrPrefix is the human-readable part of mock addresses.
const AddrPrefix = "dango"

// Addr returns a deterministic bech32 address for seed. Equal seeds
// give equal addresses.
func Addr(seed string) types.Addr {
	sum := sha256.Sum256([]byte(seed))
	return EncodeAddr(sum[:20])
}

// EncodeAddr bech32-encodes raw address bytes with AddrPrefix. It panics
// if the bytes cannot be encoded, which only happens for inputs longer
// than bech32 allows.
func EncodeAddr(raw []byte) types.Addr {
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		panic(err)
	}
	s, err := bech32.Encode(AddrPrefix, conv)
	if err != nil {
		panic(err)
	}
	return types.Addr(s)
}

// DecodeAddr returns the raw bytes of a bech32 address with AddrPrefix.
func DecodeAddr(addr types.Addr) ([]byte, error) {
	hrp, data, err := bech32.Decode(string(addr), 1023)
	if err != nil {
		return nil, err
	}
	if hrp != AddrPrefix {
		return nil, fmt.Errorf("address %s: unexpected prefix %q", addr, hrp)
	}
	return bech32.ConvertBits(data, 5, 8, false)
}
