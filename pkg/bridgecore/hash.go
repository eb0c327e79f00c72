package bridgecore

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// CanonicalHash is the 32-byte cross-chain transfer identity computed by
// Hash, per spec.md §4.2.
type CanonicalHash [32]byte

// TransferFields is the 7-tuple the canonical hash is computed over. Field
// order and encoding are fixed; any deviation produces a different hash.
type TransferFields struct {
	SrcChain  ChainTag
	DestChain ChainTag
	SrcAccount Account
	DestAccount Account
	Token     TokenRef
	Amount    *big.Int // source-chain units, not normalized
	Nonce     uint64
}

// Hash computes the canonical transfer hash for f:
//
//	keccak256( bytes32(srcChain)  // right-padded, tag in high 4 bytes
//	         ‖ bytes32(destChain) // right-padded
//	         ‖ srcAccount         // 32 bytes
//	         ‖ destAccount        // 32 bytes
//	         ‖ token              // 32 bytes
//	         ‖ u256(amount)       // big-endian
//	         ‖ u256(nonce) )      // big-endian, widened from u64
func Hash(f TransferFields) CanonicalHash {
	buf := make([]byte, 0, 32*7)

	srcWord := chainTagToWord(f.SrcChain)
	destWord := chainTagToWord(f.DestChain)
	buf = append(buf, srcWord[:]...)
	buf = append(buf, destWord[:]...)
	buf = append(buf, f.SrcAccount[:]...)
	buf = append(buf, f.DestAccount[:]...)
	buf = append(buf, f.Token[:]...)
	buf = append(buf, leftPadBigInt(f.Amount, 32)...)
	buf = append(buf, leftPadUint64(f.Nonce)...)

	var h CanonicalHash
	copy(h[:], crypto.Keccak256(buf))
	return h
}

// leftPadBigInt big-endian encodes v into a width-byte slice, zero-padded
// on the left. A nil v encodes as zero.
func leftPadBigInt(v *big.Int, width int) []byte {
	out := make([]byte, width)
	if v == nil {
		return out
	}
	b := v.Bytes()
	if len(b) > width {
		b = b[len(b)-width:]
	}
	copy(out[width-len(b):], b)
	return out
}

func leftPadUint64(n uint64) []byte {
	out := make([]byte, 32)
	binary.BigEndian.PutUint64(out[24:], n)
	return out
}

// Hex renders the hash in the conventional 0x-prefixed lowercase hex form.
func (h CanonicalHash) Hex() string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 2+len(h)*2)
	out[0], out[1] = '0', 'x'
	for i, b := range h {
		out[2+i*2] = hexDigits[b>>4]
		out[2+i*2+1] = hexDigits[b&0x0f]
	}
	return string(out)
}

// IsZero reports whether h is the all-zero hash (never a valid transfer
// hash in practice, used as a sentinel in maps).
func (h CanonicalHash) IsZero() bool {
	return h == CanonicalHash{}
}
