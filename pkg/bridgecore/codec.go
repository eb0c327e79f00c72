package bridgecore

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// CosmosHRP is the bech32 human-readable prefix used when encoding/decoding
// Cosmos-side accounts. It is a package variable (not a constant) so a
// deployment can rebind it to its own chain's prefix at startup.
var CosmosHRP = "cosmos"

// EncodeEVMAddress left-pads a 20-byte EVM address into an Account.
func EncodeEVMAddress(addr [20]byte) Account {
	var a Account
	copy(a[12:], addr[:])
	return a
}

// DecodeEVMAddress extracts the 20-byte EVM address from an Account. It
// fails if any of the 12 padding bytes are non-zero.
func DecodeEVMAddress(a Account) ([20]byte, error) {
	var out [20]byte
	for _, b := range a[:12] {
		if b != 0 {
			return out, apperr.InvalidInput("account is not a valid EVM address", nil)
		}
	}
	copy(out[:], a[12:])
	return out, nil
}

// EncodeCosmosAddress decodes a bech32 Cosmos address and left-pads its raw
// payload (20 or 32 bytes) into an Account.
func EncodeCosmosAddress(bech32Addr string) (Account, error) {
	_, raw, err := decodeBech32Address(bech32Addr)
	if err != nil {
		return Account{}, apperr.InvalidInput("invalid bech32 address", err)
	}
	var a Account
	copy(a[32-len(raw):], raw)
	return a, nil
}

// DecodeBytes32ToCosmos re-encodes an Account's effective payload (its
// trailing 20 or 32 non-zero-padded bytes) as a bech32 address under hrp.
// Any other effective length is rejected.
func DecodeBytes32ToCosmos(a Account, hrp string) (string, error) {
	raw, err := effectivePayload(a)
	if err != nil {
		return "", err
	}
	addr, err := encodeBech32Address(hrp, raw)
	if err != nil {
		return "", apperr.InvalidInput("failed to encode bech32 address", err)
	}
	return addr, nil
}

// effectivePayload strips leading zero padding from a and returns the
// trailing 20 or 32 bytes; any other length is rejected.
func effectivePayload(a Account) ([]byte, error) {
	if isZeroPrefixed(a[:12]) {
		return append([]byte{}, a[12:]...), nil
	}
	return append([]byte{}, a[:]...), nil
}

func isZeroPrefixed(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// EncodeChainTag converts a non-zero u32 chain id into a ChainTag.
func EncodeChainTag(id uint32) (ChainTag, error) {
	if id == 0 {
		return ChainTag{}, apperr.InvalidInput("chain tag 0 is reserved", nil)
	}
	var t ChainTag
	binary.BigEndian.PutUint32(t[:], id)
	return t, nil
}

// EncodeNativeDenom computes the TokenRef for a native Cosmos denom: the
// keccak256 hash of its UTF-8 bytes.
func EncodeNativeDenom(denom string) TokenRef {
	h := crypto.Keccak256([]byte(denom))
	var r TokenRef
	copy(r[:], h)
	return r
}

// EncodeContractAddress left-pads a 20-byte smart-contract address into a
// TokenRef.
func EncodeContractAddress(addr [20]byte) TokenRef {
	var r TokenRef
	copy(r[12:], addr[:])
	return r
}

// chainTagToWord right-pads a ChainTag into its 32-byte on-chain word
// representation (tag occupies the high-order 4 bytes), per spec.md §4.2.
func chainTagToWord(t ChainTag) [32]byte {
	var w [32]byte
	copy(w[:4], t[:])
	return w
}
