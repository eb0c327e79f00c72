package bridgecore

import (
	"testing"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

func TestChainRegistry_RegisterAndLookup(t *testing.T) {
	r := newChainRegistry()
	tag := ChainTag{0, 0, 0, 1}
	if err := r.RegisterChain("evm-sepolia", tag); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}
	if !r.IsRegistered(tag) {
		t.Fatal("expected chain to be registered")
	}
	if !r.IsEnabled(tag) {
		t.Fatal("expected newly registered chain to be enabled by default")
	}
	ident, err := r.Identifier(tag)
	if err != nil || ident != "evm-sepolia" {
		t.Fatalf("expected identifier evm-sepolia, got %q err=%v", ident, err)
	}
}

func TestChainRegistry_RejectsZeroTag(t *testing.T) {
	r := newChainRegistry()
	if err := r.RegisterChain("x", ZeroChainTag); !apperr.Is(err, apperr.CategoryInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestChainRegistry_RejectsDuplicates(t *testing.T) {
	r := newChainRegistry()
	tag := ChainTag{0, 0, 0, 1}
	if err := r.RegisterChain("evm", tag); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}
	if err := r.RegisterChain("other", tag); err == nil {
		t.Fatal("expected duplicate tag to be rejected")
	}
	if err := r.RegisterChain("evm", ChainTag{0, 0, 0, 2}); err == nil {
		t.Fatal("expected duplicate identifier to be rejected")
	}
}

func TestChainRegistry_UnregisterRemovesLookups(t *testing.T) {
	r := newChainRegistry()
	tag := ChainTag{0, 0, 0, 1}
	if err := r.RegisterChain("evm", tag); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}
	if err := r.UnregisterChain(tag); err != nil {
		t.Fatalf("UnregisterChain failed: %v", err)
	}
	if r.IsRegistered(tag) {
		t.Fatal("expected chain to no longer be registered")
	}
	if err := r.RequireEnabled(tag); !apperr.Is(err, apperr.CategoryNotRegistered) {
		t.Fatalf("expected NotRegistered, got %v", err)
	}
	// Re-registering the same identifier must now succeed (no dangling entry).
	if err := r.RegisterChain("evm", ChainTag{0, 0, 0, 3}); err != nil {
		t.Fatalf("expected re-registration of identifier to succeed, got %v", err)
	}
}

func TestChainRegistry_DisableRejectsRequireEnabled(t *testing.T) {
	r := newChainRegistry()
	tag := ChainTag{0, 0, 0, 1}
	if err := r.RegisterChain("evm", tag); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}
	if err := r.SetChainEnabled(tag, false); err != nil {
		t.Fatalf("SetChainEnabled failed: %v", err)
	}
	if err := r.RequireEnabled(tag); !apperr.Is(err, apperr.CategoryDisabled) {
		t.Fatalf("expected Disabled, got %v", err)
	}
}
