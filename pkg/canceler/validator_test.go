package canceler

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/chainsafe/watchtower-bridge/pkg/bridgecore"
	"github.com/chainsafe/watchtower-bridge/pkg/store"
)

// fakeDepositStore is a minimal store.DepositStore sufficient to drive
// GuardValidator's source-chain cross-check without a database.
type fakeDepositStore struct {
	deposits map[string]*store.Deposit
}

func newFakeDepositStore() *fakeDepositStore {
	return &fakeDepositStore{deposits: make(map[string]*store.Deposit)}
}

func (s *fakeDepositStore) RecordDeposit(_ context.Context, d *store.Deposit) error {
	s.deposits[d.Hash] = d
	return nil
}

func (s *fakeDepositStore) DepositByHash(_ context.Context, hash string) (*store.Deposit, error) {
	d, ok := s.deposits[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (s *fakeDepositStore) HasDeposit(_ context.Context, hash string) (bool, error) {
	_, ok := s.deposits[hash]
	return ok, nil
}

func (s *fakeDepositStore) NonceConflict(_ context.Context, srcChain string, nonce int64, exceptHash string) (bool, error) {
	for _, d := range s.deposits {
		if d.SrcChain == srcChain && d.Nonce == nonce && d.Hash != exceptHash {
			return true, nil
		}
	}
	return false, nil
}

func newTestBridge(t *testing.T) *bridgecore.Bridge {
	t.Helper()
	bridge, err := bridgecore.NewBridge(bridgecore.BridgeConfig{
		ThisChain: bridgecore.ChainTag{1},
		Ledger:    bridgecore.NewMemoryLedger(),
	})
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}
	return bridge
}

func testPendingWithdraw() bridgecore.PendingWithdraw {
	return bridgecore.PendingWithdraw{
		SrcChain:    bridgecore.ChainTag{2},
		DestChain:   bridgecore.ChainTag{1},
		DestAccount: bridgecore.Account{9},
		Token:       bridgecore.TokenRef{1},
		Amount:      big.NewInt(1_000),
		Nonce:       1,
	}
}

// depositFor builds the source-chain deposit record GuardValidator expects
// to find for hash, matching pw's nonce/amount/destination exactly.
func depositFor(hash bridgecore.CanonicalHash, pw bridgecore.PendingWithdraw) *store.Deposit {
	return &store.Deposit{
		Hash:        fmt.Sprintf("%x", hash),
		SrcChain:    fmt.Sprintf("%x", pw.SrcChain),
		DestAccount: fmt.Sprintf("%x", pw.DestAccount),
		NetAmount:   pw.Amount.String(),
		Nonce:       int64(pw.Nonce),
	}
}

func TestGuardValidator_StillValid_PassesWhenEverythingEnabled(t *testing.T) {
	bridge := newTestBridge(t)
	pw := testPendingWithdraw()
	hash := testHash(0x20)

	if err := bridge.Chains.RegisterChain("src", pw.SrcChain); err != nil {
		t.Fatalf("RegisterChain: %v", err)
	}
	if err := bridge.Tokens.RegisterToken(pw.Token, bridgecore.LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken: %v", err)
	}
	guards := bridgecore.NewGuardPipeline()
	deposits := newFakeDepositStore()
	if err := deposits.RecordDeposit(context.Background(), depositFor(hash, pw)); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}

	v := NewGuardValidator(bridge.Chains, bridge.Tokens, guards, deposits)
	ok, reason, err := v.StillValid(context.Background(), hash, pw)
	if err != nil {
		t.Fatalf("StillValid returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected withdrawal to still be valid, got reason %q", reason)
	}
}

func TestGuardValidator_StillValid_FailsWhenNoMatchingDeposit(t *testing.T) {
	bridge := newTestBridge(t)
	pw := testPendingWithdraw()
	hash := testHash(0x21)

	if err := bridge.Chains.RegisterChain("src", pw.SrcChain); err != nil {
		t.Fatalf("RegisterChain: %v", err)
	}
	if err := bridge.Tokens.RegisterToken(pw.Token, bridgecore.LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken: %v", err)
	}
	guards := bridgecore.NewGuardPipeline()
	deposits := newFakeDepositStore()

	v := NewGuardValidator(bridge.Chains, bridge.Tokens, guards, deposits)
	ok, reason, err := v.StillValid(context.Background(), hash, pw)
	if err != nil {
		t.Fatalf("StillValid returned error: %v", err)
	}
	if ok {
		t.Fatal("expected a withdrawal with no matching source-chain deposit to be rejected")
	}
	if reason == "" {
		t.Fatal("expected a non-empty reason")
	}
}

func TestGuardValidator_StillValid_FailsWhenAmountDoesNotMatchDeposit(t *testing.T) {
	bridge := newTestBridge(t)
	pw := testPendingWithdraw()
	hash := testHash(0x22)

	if err := bridge.Chains.RegisterChain("src", pw.SrcChain); err != nil {
		t.Fatalf("RegisterChain: %v", err)
	}
	if err := bridge.Tokens.RegisterToken(pw.Token, bridgecore.LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken: %v", err)
	}
	guards := bridgecore.NewGuardPipeline()
	deposits := newFakeDepositStore()
	dep := depositFor(hash, pw)
	dep.NetAmount = "1"
	if err := deposits.RecordDeposit(context.Background(), dep); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}

	v := NewGuardValidator(bridge.Chains, bridge.Tokens, guards, deposits)
	ok, reason, err := v.StillValid(context.Background(), hash, pw)
	if err != nil {
		t.Fatalf("StillValid returned error: %v", err)
	}
	if ok {
		t.Fatal("expected an amount mismatch against the source deposit to be rejected")
	}
	if reason == "" {
		t.Fatal("expected a non-empty reason")
	}
}

func TestGuardValidator_StillValid_FailsWhenNonceClaimedByAnotherDeposit(t *testing.T) {
	bridge := newTestBridge(t)
	pw := testPendingWithdraw()
	hash := testHash(0x23)

	if err := bridge.Chains.RegisterChain("src", pw.SrcChain); err != nil {
		t.Fatalf("RegisterChain: %v", err)
	}
	if err := bridge.Tokens.RegisterToken(pw.Token, bridgecore.LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken: %v", err)
	}
	guards := bridgecore.NewGuardPipeline()
	deposits := newFakeDepositStore()
	if err := deposits.RecordDeposit(context.Background(), depositFor(hash, pw)); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}
	// A second deposit reuses the same source chain/nonce under a
	// different hash, the double-spend pattern the cross-check watches for.
	conflicting := depositFor(testHash(0x24), pw)
	if err := deposits.RecordDeposit(context.Background(), conflicting); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}

	v := NewGuardValidator(bridge.Chains, bridge.Tokens, guards, deposits)
	ok, reason, err := v.StillValid(context.Background(), hash, pw)
	if err != nil {
		t.Fatalf("StillValid returned error: %v", err)
	}
	if ok {
		t.Fatal("expected a nonce claimed by two deposits to be rejected")
	}
	if reason == "" {
		t.Fatal("expected a non-empty reason")
	}
}

func TestGuardValidator_StillValid_FailsWhenSourceChainDisabled(t *testing.T) {
	bridge := newTestBridge(t)
	pw := testPendingWithdraw()
	hash := testHash(0x25)

	if err := bridge.Chains.RegisterChain("src", pw.SrcChain); err != nil {
		t.Fatalf("RegisterChain: %v", err)
	}
	if err := bridge.Tokens.RegisterToken(pw.Token, bridgecore.LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken: %v", err)
	}
	if err := bridge.Chains.SetChainEnabled(pw.SrcChain, false); err != nil {
		t.Fatalf("SetChainEnabled: %v", err)
	}
	guards := bridgecore.NewGuardPipeline()
	deposits := newFakeDepositStore()
	if err := deposits.RecordDeposit(context.Background(), depositFor(hash, pw)); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}

	v := NewGuardValidator(bridge.Chains, bridge.Tokens, guards, deposits)
	ok, reason, err := v.StillValid(context.Background(), hash, pw)
	if err != nil {
		t.Fatalf("StillValid returned error: %v", err)
	}
	if ok {
		t.Fatal("expected withdrawal to be invalid once its source chain is disabled")
	}
	if reason == "" {
		t.Fatal("expected a non-empty reason")
	}
}

func TestGuardValidator_StillValid_FailsWhenTokenUnregistered(t *testing.T) {
	bridge := newTestBridge(t)
	pw := testPendingWithdraw()
	hash := testHash(0x26)

	if err := bridge.Chains.RegisterChain("src", pw.SrcChain); err != nil {
		t.Fatalf("RegisterChain: %v", err)
	}
	guards := bridgecore.NewGuardPipeline()
	deposits := newFakeDepositStore()
	if err := deposits.RecordDeposit(context.Background(), depositFor(hash, pw)); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}

	v := NewGuardValidator(bridge.Chains, bridge.Tokens, guards, deposits)
	ok, _, err := v.StillValid(context.Background(), hash, pw)
	if err != nil {
		t.Fatalf("StillValid returned error: %v", err)
	}
	if ok {
		t.Fatal("expected withdrawal to be invalid for an unregistered token")
	}
}

func TestGuardValidator_StillValid_FailsWhenDestinationBlacklisted(t *testing.T) {
	bridge := newTestBridge(t)
	pw := testPendingWithdraw()
	hash := testHash(0x27)

	if err := bridge.Chains.RegisterChain("src", pw.SrcChain); err != nil {
		t.Fatalf("RegisterChain: %v", err)
	}
	if err := bridge.Tokens.RegisterToken(pw.Token, bridgecore.LockUnlock, 18); err != nil {
		t.Fatalf("RegisterToken: %v", err)
	}
	guards := bridgecore.NewGuardPipeline()
	blacklist := bridgecore.NewBlacklistGuard()
	blacklist.Block(pw.DestAccount)
	guards.AddAccountGuard(blacklist)
	deposits := newFakeDepositStore()
	if err := deposits.RecordDeposit(context.Background(), depositFor(hash, pw)); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}

	v := NewGuardValidator(bridge.Chains, bridge.Tokens, guards, deposits)
	ok, reason, err := v.StillValid(context.Background(), hash, pw)
	if err != nil {
		t.Fatalf("StillValid returned error: %v", err)
	}
	if ok {
		t.Fatal("expected withdrawal to be invalid once its destination account is blacklisted")
	}
	if reason == "" {
		t.Fatal("expected a non-empty reason")
	}
}
