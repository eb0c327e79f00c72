package bridgecore

import (
	"bytes"
	"testing"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

func TestEVMAddressRoundTrip(t *testing.T) {
	var addr [20]byte
	for i := range addr {
		addr[i] = byte(i + 1)
	}
	acc := EncodeEVMAddress(addr)
	got, err := DecodeEVMAddress(acc)
	if err != nil {
		t.Fatalf("DecodeEVMAddress failed: %v", err)
	}
	if got != addr {
		t.Errorf("expected %x, got %x", addr, got)
	}
}

func TestDecodeEVMAddress_RejectsNonZeroPadding(t *testing.T) {
	var acc Account
	acc[0] = 0x01 // padding byte set, not a valid EVM address encoding
	if _, err := DecodeEVMAddress(acc); !apperr.Is(err, apperr.CategoryInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestCosmosAddressRoundTrip_20Byte(t *testing.T) {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	addr, err := encodeBech32Address("cosmos", raw)
	if err != nil {
		t.Fatalf("encodeBech32Address failed: %v", err)
	}
	acc, err := EncodeCosmosAddress(addr)
	if err != nil {
		t.Fatalf("EncodeCosmosAddress failed: %v", err)
	}
	back, err := DecodeBytes32ToCosmos(acc, "cosmos")
	if err != nil {
		t.Fatalf("DecodeBytes32ToCosmos failed: %v", err)
	}
	if back != addr {
		t.Errorf("expected %s, got %s", addr, back)
	}
}

func TestCosmosAddressRoundTrip_32Byte(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	addr, err := encodeBech32Address("cosmos", raw)
	if err != nil {
		t.Fatalf("encodeBech32Address failed: %v", err)
	}
	acc, err := EncodeCosmosAddress(addr)
	if err != nil {
		t.Fatalf("EncodeCosmosAddress failed: %v", err)
	}
	if !bytes.Equal(acc[:], raw) {
		t.Errorf("expected raw 32-byte payload to pass through unpadded, got %x", acc)
	}
}

func TestEncodeCosmosAddress_RejectsBadChecksum(t *testing.T) {
	if _, err := EncodeCosmosAddress("cosmos1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5lzv7xq"); err == nil {
		t.Fatal("expected error for invalid bech32 checksum")
	}
}

func TestEncodeChainTag_RejectsZero(t *testing.T) {
	if _, err := EncodeChainTag(0); !apperr.Is(err, apperr.CategoryInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestEncodeChainTag_BigEndian(t *testing.T) {
	tag, err := EncodeChainTag(1)
	if err != nil {
		t.Fatalf("EncodeChainTag failed: %v", err)
	}
	want := ChainTag{0, 0, 0, 1}
	if tag != want {
		t.Errorf("expected %x, got %x", want, tag)
	}
}

func TestEncodeNativeDenom_Deterministic(t *testing.T) {
	a := EncodeNativeDenom("uatom")
	b := EncodeNativeDenom("uatom")
	if a != b {
		t.Errorf("expected deterministic hash, got %x vs %x", a, b)
	}
	c := EncodeNativeDenom("uosmo")
	if a == c {
		t.Errorf("expected distinct denoms to hash differently")
	}
}

func TestEncodeContractAddress_LeftPads(t *testing.T) {
	var addr [20]byte
	addr[19] = 0xAB
	ref := EncodeContractAddress(addr)
	for i := 0; i < 12; i++ {
		if ref[i] != 0 {
			t.Fatalf("expected leading 12 bytes zero, got %x", ref)
		}
	}
	if ref[31] != 0xAB {
		t.Errorf("expected trailing byte 0xAB, got %x", ref[31])
	}
}
