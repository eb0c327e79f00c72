package canceler

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/chainsafe/watchtower-bridge/pkg/bridgecore"
	"github.com/chainsafe/watchtower-bridge/pkg/store"
)

// GuardValidator is the concrete Validator grounded directly on pkg/bridgecore's
// own guard pipeline and registries (C3/C4/C8), plus the source-chain deposit
// record pkg/store persisted for the hash under review. A pending withdrawal
// is still valid exactly when a matching source-chain deposit exists, its
// nonce has not been claimed by any other deposit, and its source chain and
// token remain enabled and clear the same guard pipeline the destination
// Bridge would consult on Approve.
type GuardValidator struct {
	chains   *bridgecore.ChainRegistry
	tokens   *bridgecore.TokenRegistry
	guards   *bridgecore.GuardPipeline
	deposits store.DepositStore
}

// NewGuardValidator constructs a GuardValidator over the destination
// chain's registries, guard pipeline, and the shared deposit store the
// observer populates on the source side.
func NewGuardValidator(chains *bridgecore.ChainRegistry, tokens *bridgecore.TokenRegistry, guards *bridgecore.GuardPipeline, deposits store.DepositStore) *GuardValidator {
	return &GuardValidator{chains: chains, tokens: tokens, guards: guards, deposits: deposits}
}

// StillValid implements Validator.
func (v *GuardValidator) StillValid(ctx context.Context, hash bridgecore.CanonicalHash, pw bridgecore.PendingWithdraw) (bool, string, error) {
	hexHash := fmt.Sprintf("%x", hash)

	dep, err := v.deposits.DepositByHash(ctx, hexHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, "no matching source-chain deposit recorded for this withdrawal", nil
		}
		return false, "", fmt.Errorf("canceler: load source deposit: %w", err)
	}

	if dep.Nonce != int64(pw.Nonce) {
		return false, "source deposit nonce does not match the withdrawal", nil
	}
	if pw.Amount == nil || dep.NetAmount != pw.Amount.String() {
		return false, "source deposit amount does not match the withdrawal", nil
	}
	if destAccount, err := decodeAccountHex(dep.DestAccount); err != nil || destAccount != pw.DestAccount {
		return false, "source deposit destination account does not match the withdrawal", nil
	}

	conflict, err := v.deposits.NonceConflict(ctx, dep.SrcChain, dep.Nonce, dep.Hash)
	if err != nil {
		return false, "", fmt.Errorf("canceler: check nonce conflict: %w", err)
	}
	if conflict {
		return false, "source chain nonce is claimed by more than one deposit", nil
	}

	if err := v.chains.RequireEnabled(pw.SrcChain); err != nil {
		return false, err.Error(), nil
	}
	if err := v.tokens.RequireEnabled(pw.Token); err != nil {
		return false, err.Error(), nil
	}
	if err := v.guards.CheckWithdraw(pw.Token, pw.Amount, pw.DestAccount); err != nil {
		return false, err.Error(), nil
	}
	return true, "", nil
}

func decodeAccountHex(s string) (bridgecore.Account, error) {
	var a bridgecore.Account
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(a) {
		return a, fmt.Errorf("invalid account %q", s)
	}
	copy(a[:], b)
	return a, nil
}
