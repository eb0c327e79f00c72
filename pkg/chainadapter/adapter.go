// Package chainadapter defines the narrow interface pkg/observer,
// pkg/operator and pkg/canceler program against, so they never import
// pkg/evmchain or pkg/cosmoschain directly. Modeled on the teacher's
// EthereumBridgeClient/CantonBridgeClient interfaces in
// pkg/relayer/engine.go, generalized from two concrete chains to any
// chain a *bridgecore.Bridge can stand in for.
package chainadapter

import (
	"context"
	"math/big"
	"time"

	"github.com/chainsafe/watchtower-bridge/pkg/bridgecore"
)

// Config holds the per-adapter tunables that differ between EVM and
// Cosmos deployments of the same bridgecore.Bridge semantics.
type Config struct {
	// NonceStart is the first deposit nonce this chain issues. EVM
	// contracts conventionally start counting at 1; Cosmos modules in
	// this pack start at 0. See SPEC_FULL.md Open Question 1.
	NonceStart uint64
	// FinalityDepth is how many confirmations behind the chain head
	// the observer must stay before treating a block as final.
	FinalityDepth uint64
	// PollInterval is how often the observer polls for new blocks.
	PollInterval time.Duration
}

// ObservedDeposit is a deposit as seen by an observer, with the
// chain-position metadata needed to persist a resumable cursor and to
// detect reorgs.
type ObservedDeposit struct {
	bridgecore.Deposit
	Hash        bridgecore.CanonicalHash
	BlockHeight int64
	BlockHash   string
}

// WithdrawSubmitRequest mirrors Bridge.WithdrawSubmit's arguments so
// adapters can be called generically from pkg/operator.
type WithdrawSubmitRequest struct {
	SrcChain    bridgecore.ChainTag
	SrcAccount  bridgecore.Account
	DestAccount bridgecore.Account
	Token       bridgecore.TokenRef
	Amount      *big.Int
	Nonce       uint64
	TipPayer    bridgecore.Account
	OperatorGas *big.Int
}

// ChainAdapter is the seam between the chain-agnostic off-chain
// services (C9-C11) and a concrete chain's wire format, signing scheme
// and finality rules. Two adapters ship: evmchain and cosmoschain, both
// wrapping an in-process *bridgecore.Bridge as their "ledger", exactly
// the way the teacher's ethereum.Client wraps an abigen contract
// binding.
type ChainAdapter interface {
	// ChainTag identifies which side of the bridge this adapter stands in for.
	ChainTag() bridgecore.ChainTag
	// Account is this adapter's own signing identity (the
	// operator/canceler key configured for this chain).
	Account() bridgecore.Account
	Config() Config

	// DepositsSince returns deposits observed strictly after cursor, up
	// to limit, along with the new cursor position to resume from.
	DepositsSince(ctx context.Context, cursor int64, limit int) ([]ObservedDeposit, int64, error)
	// BlockHashAt returns the block hash at a given height, used by the
	// observer to detect a reorg against its persisted cursor hash.
	BlockHashAt(ctx context.Context, height int64) (string, error)
	// LatestFinalizedHeight returns the highest block height that has
	// accumulated Config().FinalityDepth confirmations.
	LatestFinalizedHeight(ctx context.Context) (int64, error)

	// WithdrawSubmit files a withdrawal on this chain's bridge.
	WithdrawSubmit(ctx context.Context, req WithdrawSubmitRequest) (bridgecore.CanonicalHash, error)
	// Approve signs and records approval of a pending withdrawal.
	Approve(ctx context.Context, hash bridgecore.CanonicalHash) error
	// Cancel rejects a pending withdrawal within the cancel window.
	Cancel(ctx context.Context, hash bridgecore.CanonicalHash) error
	// ExecuteUnlock pays out a pending withdrawal from locked balance.
	ExecuteUnlock(ctx context.Context, hash bridgecore.CanonicalHash) error
	// ExecuteMint pays out a pending withdrawal by minting.
	ExecuteMint(ctx context.Context, hash bridgecore.CanonicalHash) error
	// PendingWithdrawal looks up a withdrawal's current state.
	PendingWithdrawal(ctx context.Context, hash bridgecore.CanonicalHash) (bridgecore.PendingWithdraw, bool, error)
}
