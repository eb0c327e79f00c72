package bridgecore

import (
	"math/big"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// handlerAccount is the reserved account identity the lock-unlock pool is
// held under in the backing TokenLedger. It is never a valid Account for a
// user-facing deposit or withdrawal.
var handlerAccount = Account{0xff}

// AssetHandler dispatches lock/unlock or mint/burn transfers against a
// TokenLedger, asserting exact pre/post balance deltas before any bridge
// state is committed (§4.5, C5). Any deviation — a fee-on-transfer token, a
// rebasing token, a malicious transfer — surfaces as TokenMisbehaved rather
// than silently under/over-crediting the bridge.
type AssetHandler struct {
	ledger TokenLedger
	guard  reentrancyGuard

	// lockedBalance tracks, per LockUnlock token, the amount the handler
	// believes it holds on behalf of pending/locked withdrawals (§3's
	// solvency invariant).
	lockedBalance map[TokenRef]*big.Int
}

// NewAssetHandler constructs an AssetHandler over ledger.
func NewAssetHandler(ledger TokenLedger) *AssetHandler {
	return &AssetHandler{
		ledger:        ledger,
		lockedBalance: make(map[TokenRef]*big.Int),
	}
}

func (h *AssetHandler) lockedFor(token TokenRef) *big.Int {
	v, ok := h.lockedBalance[token]
	if !ok {
		v = big.NewInt(0)
		h.lockedBalance[token] = v
	}
	return v
}

// LockedBalance returns the tracked locked balance for token.
func (h *AssetHandler) LockedBalance(token TokenRef) *big.Int {
	return new(big.Int).Set(h.lockedFor(token))
}

// assertDelta checks that account's balance of token moved by exactly want
// relative to pre.
func (h *AssetHandler) assertDelta(token TokenRef, account Account, pre *big.Int, want *big.Int) error {
	post, err := h.ledger.BalanceOf(token, account)
	if err != nil {
		return apperr.TokenMisbehaved("balance query failed after transfer", err)
	}
	got := new(big.Int).Sub(post, pre)
	if got.Cmp(want) != 0 {
		return apperr.TokenMisbehaved("balance delta did not match transferred amount", nil)
	}
	return nil
}

// DepositLockUnlock moves fee to feeRecipient and net into the handler's
// pooled balance, asserting exact deltas on both legs, and increments the
// tracked locked balance by net.
func (h *AssetHandler) DepositLockUnlock(token TokenRef, sender, feeRecipient Account, fee, net *big.Int) error {
	if err := h.guard.enter(); err != nil {
		return err
	}
	defer h.guard.exit()

	if fee.Sign() > 0 {
		preSender, err := h.ledger.BalanceOf(token, sender)
		if err != nil {
			return apperr.TokenMisbehaved("balance query failed before transfer", err)
		}
		preFeeRecipient, err := h.ledger.BalanceOf(token, feeRecipient)
		if err != nil {
			return apperr.TokenMisbehaved("balance query failed before transfer", err)
		}
		if err := h.ledger.Transfer(token, sender, feeRecipient, fee); err != nil {
			return err
		}
		if err := h.assertDelta(token, feeRecipient, preFeeRecipient, fee); err != nil {
			return err
		}
		if err := h.assertDelta(token, sender, preSender, new(big.Int).Neg(fee)); err != nil {
			return err
		}
	}

	preSender, err := h.ledger.BalanceOf(token, sender)
	if err != nil {
		return apperr.TokenMisbehaved("balance query failed before transfer", err)
	}
	preHandler, err := h.ledger.BalanceOf(token, handlerAccount)
	if err != nil {
		return apperr.TokenMisbehaved("balance query failed before transfer", err)
	}
	if err := h.ledger.Transfer(token, sender, handlerAccount, net); err != nil {
		return err
	}
	if err := h.assertDelta(token, handlerAccount, preHandler, net); err != nil {
		return err
	}
	if err := h.assertDelta(token, sender, preSender, new(big.Int).Neg(net)); err != nil {
		return err
	}

	locked := h.lockedFor(token)
	h.lockedBalance[token] = new(big.Int).Add(locked, net)
	return nil
}

// DepositMintBurn transfers fee to feeRecipient then burns net from sender,
// asserting the post-burn balance is exactly pre-net.
func (h *AssetHandler) DepositMintBurn(token TokenRef, sender, feeRecipient Account, fee, net *big.Int) error {
	if err := h.guard.enter(); err != nil {
		return err
	}
	defer h.guard.exit()

	if fee.Sign() > 0 {
		preFeeRecipient, err := h.ledger.BalanceOf(token, feeRecipient)
		if err != nil {
			return apperr.TokenMisbehaved("balance query failed before transfer", err)
		}
		if err := h.ledger.Transfer(token, sender, feeRecipient, fee); err != nil {
			return err
		}
		if err := h.assertDelta(token, feeRecipient, preFeeRecipient, fee); err != nil {
			return err
		}
	}

	preSender, err := h.ledger.BalanceOf(token, sender)
	if err != nil {
		return apperr.TokenMisbehaved("balance query failed before transfer", err)
	}
	if err := h.ledger.Burn(token, sender, net); err != nil {
		return err
	}
	return h.assertDelta(token, sender, preSender, new(big.Int).Neg(net))
}

// ExecuteUnlock pays payout out of the handler's pooled balance to
// recipient, asserting the exact delta, and decrements the tracked locked
// balance.
func (h *AssetHandler) ExecuteUnlock(token TokenRef, recipient Account, payout *big.Int) error {
	if err := h.guard.enter(); err != nil {
		return err
	}
	defer h.guard.exit()

	preHandler, err := h.ledger.BalanceOf(token, handlerAccount)
	if err != nil {
		return apperr.TokenMisbehaved("balance query failed before transfer", err)
	}
	preRecipient, err := h.ledger.BalanceOf(token, recipient)
	if err != nil {
		return apperr.TokenMisbehaved("balance query failed before transfer", err)
	}
	if err := h.ledger.Transfer(token, handlerAccount, recipient, payout); err != nil {
		return err
	}
	if err := h.assertDelta(token, handlerAccount, preHandler, new(big.Int).Neg(payout)); err != nil {
		return err
	}
	if err := h.assertDelta(token, recipient, preRecipient, payout); err != nil {
		return err
	}

	locked := h.lockedFor(token)
	h.lockedBalance[token] = new(big.Int).Sub(locked, payout)
	return nil
}

// ExecuteMint mints payout to recipient, asserting the exact post-balance
// delta.
func (h *AssetHandler) ExecuteMint(token TokenRef, recipient Account, payout *big.Int) error {
	if err := h.guard.enter(); err != nil {
		return err
	}
	defer h.guard.exit()

	pre, err := h.ledger.BalanceOf(token, recipient)
	if err != nil {
		return apperr.TokenMisbehaved("balance query failed before mint", err)
	}
	if err := h.ledger.Mint(token, recipient, payout); err != nil {
		return err
	}
	return h.assertDelta(token, recipient, pre, payout)
}

// Recover is the admin-only, paused-only emergency withdrawal of amount of
// token to recipient. For LockUnlock tokens it is paid out of the handler
// pool and the tracked locked balance is decremented to match, so the
// tracked figure never drifts from what the handler can still redeem.
func (h *AssetHandler) Recover(token TokenRef, typ TokenType, recipient Account, amount *big.Int) error {
	if err := h.guard.enter(); err != nil {
		return err
	}
	defer h.guard.exit()

	switch typ {
	case LockUnlock:
		preHandler, err := h.ledger.BalanceOf(token, handlerAccount)
		if err != nil {
			return apperr.TokenMisbehaved("balance query failed before transfer", err)
		}
		if err := h.ledger.Transfer(token, handlerAccount, recipient, amount); err != nil {
			return err
		}
		if err := h.assertDelta(token, handlerAccount, preHandler, new(big.Int).Neg(amount)); err != nil {
			return err
		}
		locked := h.lockedFor(token)
		h.lockedBalance[token] = new(big.Int).Sub(locked, amount)
		return nil
	default:
		return h.ledger.Mint(token, recipient, amount)
	}
}
