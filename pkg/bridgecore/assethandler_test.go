package bridgecore

import (
	"math/big"
	"testing"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

func TestAssetHandler_DepositLockUnlock_PoolsNetAndLocksIt(t *testing.T) {
	ledger := NewMemoryLedger()
	token := TokenRef{1}
	sender := Account{1}
	feeRecipient := Account{2}
	ledger.Credit(token, sender, big.NewInt(1_000_000))

	h := NewAssetHandler(ledger)
	fee := big.NewInt(3_000)
	net := big.NewInt(997_000)
	if err := h.DepositLockUnlock(token, sender, feeRecipient, fee, net); err != nil {
		t.Fatalf("DepositLockUnlock failed: %v", err)
	}

	senderBal, _ := ledger.BalanceOf(token, sender)
	if senderBal.Cmp(big.NewInt(0)) != 0 {
		t.Fatalf("expected sender balance 0, got %s", senderBal)
	}
	feeBal, _ := ledger.BalanceOf(token, feeRecipient)
	if feeBal.Cmp(fee) != 0 {
		t.Fatalf("expected fee recipient balance %s, got %s", fee, feeBal)
	}
	handlerBal, _ := ledger.BalanceOf(token, handlerAccount)
	if handlerBal.Cmp(net) != 0 {
		t.Fatalf("expected handler balance %s, got %s", net, handlerBal)
	}
	if h.LockedBalance(token).Cmp(net) != 0 {
		t.Fatalf("expected locked balance %s, got %s", net, h.LockedBalance(token))
	}
}

func TestAssetHandler_DepositLockUnlock_InsufficientBalanceFails(t *testing.T) {
	ledger := NewMemoryLedger()
	token := TokenRef{1}
	sender := Account{1}
	h := NewAssetHandler(ledger)
	if err := h.DepositLockUnlock(token, sender, Account{2}, big.NewInt(0), big.NewInt(100)); !apperr.Is(err, apperr.CategoryTokenMisbehaved) {
		t.Fatalf("expected TokenMisbehaved, got %v", err)
	}
}

func TestAssetHandler_ExecuteUnlock_PaysOutAndUnlocks(t *testing.T) {
	ledger := NewMemoryLedger()
	token := TokenRef{1}
	sender := Account{1}
	recipient := Account{3}
	ledger.Credit(token, sender, big.NewInt(1_000_000))

	h := NewAssetHandler(ledger)
	if err := h.DepositLockUnlock(token, sender, Account{2}, big.NewInt(0), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if err := h.ExecuteUnlock(token, recipient, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("ExecuteUnlock failed: %v", err)
	}
	recipientBal, _ := ledger.BalanceOf(token, recipient)
	if recipientBal.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("expected recipient balance 1000000, got %s", recipientBal)
	}
	if h.LockedBalance(token).Sign() != 0 {
		t.Fatalf("expected locked balance to return to zero, got %s", h.LockedBalance(token))
	}
}

func TestAssetHandler_DepositMintBurn_BurnsNetAfterFee(t *testing.T) {
	ledger := NewMemoryLedger()
	token := TokenRef{1}
	sender := Account{1}
	feeRecipient := Account{2}
	ledger.Credit(token, sender, big.NewInt(500))

	h := NewAssetHandler(ledger)
	if err := h.DepositMintBurn(token, sender, feeRecipient, big.NewInt(10), big.NewInt(490)); err != nil {
		t.Fatalf("DepositMintBurn failed: %v", err)
	}
	senderBal, _ := ledger.BalanceOf(token, sender)
	if senderBal.Sign() != 0 {
		t.Fatalf("expected sender balance 0 after fee+burn, got %s", senderBal)
	}
}

func TestAssetHandler_ExecuteMint_CreditsRecipient(t *testing.T) {
	ledger := NewMemoryLedger()
	token := TokenRef{1}
	recipient := Account{3}
	h := NewAssetHandler(ledger)
	if err := h.ExecuteMint(token, recipient, big.NewInt(42)); err != nil {
		t.Fatalf("ExecuteMint failed: %v", err)
	}
	bal, _ := ledger.BalanceOf(token, recipient)
	if bal.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected balance 42, got %s", bal)
	}
}
