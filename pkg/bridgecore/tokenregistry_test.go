package bridgecore

import (
	"math/big"
	"testing"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

func TestTokenRegistry_RegisterAndOutgoingMapping(t *testing.T) {
	r := newTokenRegistry()
	token := TokenRef{1}
	destChain := ChainTag{0, 0, 0, 2}
	remote := TokenRef{2}

	if err := r.RegisterToken(token, LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken failed: %v", err)
	}
	if err := r.SetOutgoing(token, destChain, remote, 6); err != nil {
		t.Fatalf("SetOutgoing failed: %v", err)
	}
	m, err := r.GetOutgoing(token, destChain)
	if err != nil {
		t.Fatalf("GetOutgoing failed: %v", err)
	}
	if m.RemoteTokenRef != remote || m.RemoteDecimals != 6 {
		t.Fatalf("unexpected mapping: %+v", m)
	}
}

func TestTokenRegistry_GetOutgoing_MissingIsNotRegistered(t *testing.T) {
	r := newTokenRegistry()
	token := TokenRef{1}
	if err := r.RegisterToken(token, LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken failed: %v", err)
	}
	if _, err := r.GetOutgoing(token, ChainTag{0, 0, 0, 9}); !apperr.Is(err, apperr.CategoryNotRegistered) {
		t.Fatalf("expected NotRegistered, got %v", err)
	}
}

func TestTokenRegistry_IncomingMappingRequiresEnabled(t *testing.T) {
	r := newTokenRegistry()
	token := TokenRef{1}
	srcChain := ChainTag{0, 0, 0, 1}
	remote := TokenRef{9}

	if err := r.RegisterToken(token, MintBurn, 18); err != nil {
		t.Fatalf("RegisterToken failed: %v", err)
	}
	if err := r.SetIncoming(token, srcChain, remote, 6, false); err != nil {
		t.Fatalf("SetIncoming failed: %v", err)
	}
	if _, err := r.GetIncoming(token, srcChain); !apperr.Is(err, apperr.CategoryDisabled) {
		t.Fatalf("expected Disabled, got %v", err)
	}
	if err := r.SetIncoming(token, srcChain, remote, 6, true); err != nil {
		t.Fatalf("SetIncoming failed: %v", err)
	}
	m, err := r.GetIncoming(token, srcChain)
	if err != nil {
		t.Fatalf("GetIncoming failed: %v", err)
	}
	if m.SrcDecimals != 6 {
		t.Fatalf("expected srcDecimals 6, got %d", m.SrcDecimals)
	}
}

func TestTokenRegistry_UnregisterCleansUpMappings(t *testing.T) {
	r := newTokenRegistry()
	token := TokenRef{1}
	destChain := ChainTag{0, 0, 0, 2}

	if err := r.RegisterToken(token, LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken failed: %v", err)
	}
	if err := r.SetOutgoing(token, destChain, TokenRef{2}, 6); err != nil {
		t.Fatalf("SetOutgoing failed: %v", err)
	}
	if err := r.UnregisterToken(token); err != nil {
		t.Fatalf("UnregisterToken failed: %v", err)
	}
	if _, err := r.GetOutgoing(token, destChain); !apperr.Is(err, apperr.CategoryNotRegistered) {
		t.Fatalf("expected NotRegistered after unregister, got %v", err)
	}
	// Re-registering must start from a clean slate with no stale mappings.
	if err := r.RegisterToken(token, MintBurn, 6); err != nil {
		t.Fatalf("re-register failed: %v", err)
	}
	if _, err := r.GetOutgoing(token, destChain); !apperr.Is(err, apperr.CategoryNotRegistered) {
		t.Fatalf("expected no dangling mapping to survive re-registration, got %v", err)
	}
}

func TestTokenRegistry_BoundsEnforced(t *testing.T) {
	r := newTokenRegistry()
	token := TokenRef{1}
	if err := r.RegisterToken(token, LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken failed: %v", err)
	}
	if err := r.SetBounds(token, big.NewInt(100), big.NewInt(1000)); err != nil {
		t.Fatalf("SetBounds failed: %v", err)
	}
	if err := r.CheckBounds(token, big.NewInt(50)); !apperr.Is(err, apperr.CategoryInvalidInput) {
		t.Fatalf("expected below-min rejection, got %v", err)
	}
	if err := r.CheckBounds(token, big.NewInt(1001)); !apperr.Is(err, apperr.CategoryInvalidInput) {
		t.Fatalf("expected above-max rejection, got %v", err)
	}
	if err := r.CheckBounds(token, big.NewInt(500)); err != nil {
		t.Fatalf("expected in-bounds amount to pass, got %v", err)
	}
}

func TestTokenRegistry_SetOutgoing_RejectsZeroRemoteRef(t *testing.T) {
	r := newTokenRegistry()
	token := TokenRef{1}
	if err := r.RegisterToken(token, LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken failed: %v", err)
	}
	if err := r.SetOutgoing(token, ChainTag{0, 0, 0, 2}, TokenRef{}, 6); !apperr.Is(err, apperr.CategoryInvalidInput) {
		t.Fatalf("expected InvalidInput for zero remote ref, got %v", err)
	}
}
