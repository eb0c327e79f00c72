package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup finds no matching record.
var ErrNotFound = errors.New("record not found")

// DepositStore persists deposits observed on a source chain, keyed by hash.
type DepositStore interface {
	RecordDeposit(ctx context.Context, d *Deposit) error
	DepositByHash(ctx context.Context, hash string) (*Deposit, error)
	HasDeposit(ctx context.Context, hash string) (bool, error)
	// NonceConflict reports whether a source chain/nonce pair is claimed by
	// any recorded deposit other than exceptHash, the double-spend pattern
	// the canceler's source-chain cross-check watches for.
	NonceConflict(ctx context.Context, srcChain string, nonce int64, exceptHash string) (bool, error)
}

// ApprovalStore persists approvals a Bridge.Approve call has produced.
type ApprovalStore interface {
	RecordApproval(ctx context.Context, a *Approval) error
	ApprovalByHash(ctx context.Context, hash string) (*Approval, error)
}

// ExecutionStore persists executions an ExecuteUnlock/ExecuteMint call has produced.
type ExecutionStore interface {
	RecordExecution(ctx context.Context, e *Execution) error
	HasExecution(ctx context.Context, hash string) (bool, error)
}

// CancelStore persists cancels a Bridge.Cancel call has produced.
type CancelStore interface {
	RecordCancel(ctx context.Context, c *Cancel) error
	HasCancel(ctx context.Context, hash string) (bool, error)
}

// CursorStore persists each service's per-chain resume position.
type CursorStore interface {
	GetCursor(ctx context.Context, chain, service string) (*Cursor, error)
	SetCursor(ctx context.Context, chain, service string, cursor int64, cursorHash string) error
}

// PendingLister finds hashes recorded as deposited or approved but not yet
// taken to their next lifecycle step, for the operator/canceler
// reconciliation loop.
type PendingLister interface {
	// PendingApproval returns deposit hashes with no recorded approval.
	PendingApproval(ctx context.Context, destChain string, limit int) ([]string, error)
	// PendingExecution returns approval hashes with no recorded execution or cancel.
	PendingExecution(ctx context.Context, destChain string, limit int) ([]string, error)
}

// Store is the full persistence surface the operator, canceler and
// observer services depend on.
type Store interface {
	DepositStore
	ApprovalStore
	ExecutionStore
	CancelStore
	CursorStore
	PendingLister
	Close() error
}
