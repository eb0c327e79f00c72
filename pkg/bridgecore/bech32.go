package bridgecore

// Minimal BIP-173 bech32 codec. No library in the retrieval pack provides
// this (no cosmos-sdk, no btcutil), so it is hand-rolled here rather than
// reached for as a dependency — see DESIGN.md for the justification.

import (
	"fmt"
	"strings"
)

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var bech32CharsetRev = func() [128]int8 {
	var rev [128]int8
	for i := range rev {
		rev[i] = -1
	}
	for i, c := range bech32Charset {
		rev[c] = int8(i)
	}
	return rev
}()

func bech32Polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func bech32HRPExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, byte(c)>>5)
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, byte(c)&31)
	}
	return out
}

func bech32VerifyChecksum(hrp string, data []byte) bool {
	values := append(bech32HRPExpand(hrp), data...)
	return bech32Polymod(values) == 1
}

func bech32CreateChecksum(hrp string, data []byte) []byte {
	values := append(bech32HRPExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := bech32Polymod(values) ^ 1
	checksum := make([]byte, 6)
	for i := 0; i < 6; i++ {
		checksum[i] = byte((mod >> uint(5*(5-i))) & 31)
	}
	return checksum
}

// bech32Encode encodes hrp and the 5-bit data into a bech32 string.
func bech32Encode(hrp string, data []byte) (string, error) {
	combined := append(append([]byte{}, data...), bech32CreateChecksum(hrp, data)...)
	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, b := range combined {
		if int(b) >= len(bech32Charset) {
			return "", fmt.Errorf("bech32: invalid 5-bit value %d", b)
		}
		sb.WriteByte(bech32Charset[b])
	}
	return sb.String(), nil
}

// bech32Decode decodes a bech32 string into its human-readable part and
// 5-bit data payload (checksum stripped).
func bech32Decode(s string) (hrp string, data []byte, err error) {
	if len(s) < 8 || len(s) > 90 {
		return "", nil, fmt.Errorf("bech32: invalid length %d", len(s))
	}
	lower := strings.ToLower(s)
	upper := strings.ToUpper(s)
	if s != lower && s != upper {
		return "", nil, fmt.Errorf("bech32: mixed case")
	}
	s = lower
	pos := strings.LastIndexByte(s, '1')
	if pos < 1 || pos+7 > len(s) {
		return "", nil, fmt.Errorf("bech32: missing or misplaced separator")
	}
	hrp = s[:pos]
	for _, c := range hrp {
		if c < 33 || c > 126 {
			return "", nil, fmt.Errorf("bech32: invalid hrp character")
		}
	}
	data = make([]byte, len(s)-pos-1)
	for i, c := range s[pos+1:] {
		if c >= 128 || bech32CharsetRev[c] == -1 {
			return "", nil, fmt.Errorf("bech32: invalid data character %q", c)
		}
		data[i] = byte(bech32CharsetRev[c])
	}
	if !bech32VerifyChecksum(hrp, data) {
		return "", nil, fmt.Errorf("bech32: invalid checksum")
	}
	return hrp, data[:len(data)-6], nil
}

// convertBits repacks a slice of uint values between bit-widths fromBits
// and toBits, used to move between bech32's 5-bit data words and raw
// 8-bit bytes.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	var out []byte
	maxv := uint32(1)<<toBits - 1
	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, fmt.Errorf("bech32: invalid data range")
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte(acc>>bits)&byte(maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(toBits-bits))&byte(maxv))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxv != 0 {
		return nil, fmt.Errorf("bech32: invalid padding")
	}
	return out, nil
}

// decodeBech32Address decodes a bech32 address string into its hrp and raw
// byte payload (20 or 32 bytes).
func decodeBech32Address(addr string) (hrp string, raw []byte, err error) {
	hrp, data, err := bech32Decode(addr)
	if err != nil {
		return "", nil, err
	}
	raw, err = convertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	if len(raw) != 20 && len(raw) != 32 {
		return "", nil, fmt.Errorf("bech32: unsupported payload length %d", len(raw))
	}
	return hrp, raw, nil
}

// encodeBech32Address encodes raw (20 or 32 bytes) under hrp.
func encodeBech32Address(hrp string, raw []byte) (string, error) {
	if len(raw) != 20 && len(raw) != 32 {
		return "", fmt.Errorf("bech32: unsupported payload length %d", len(raw))
	}
	data, err := convertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32Encode(hrp, data)
}
