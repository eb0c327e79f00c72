// Package store persists the off-chain bookkeeping the operator, canceler
// and observer services need to survive a restart: every deposit the
// observer has seen, every approval/execution/cancel the operator and
// canceler have driven to completion, and each service's per-chain scan
// cursor. It holds no bridge business logic — bridgecore.Bridge remains
// the single source of truth for what is actually pending.
package store

import "time"

// Deposit is the persisted record of a source-chain Deposit event.
type Deposit struct {
	SrcChain    string
	DestChain   string
	SrcAccount  string
	DestAccount string
	Token       string
	NetAmount   string
	Fee         string
	Nonce       int64
	Hash        string
	ObservedAt  time.Time
}

// Approval is the persisted record of a successful Bridge.Approve call.
type Approval struct {
	Hash       string
	DestChain  string
	Approver   string
	ApprovedAt time.Time
}

// Execution is the persisted record of a successful ExecuteUnlock/ExecuteMint call.
type Execution struct {
	Hash       string
	DestChain  string
	Variant    string
	Payout     string
	ExecutedAt time.Time
}

// Cancel is the persisted record of a successful Bridge.Cancel call.
type Cancel struct {
	Hash        string
	DestChain   string
	Canceler    string
	Reason      string
	CancelledAt time.Time
}

// Cursor is one service's resume position for one chain.
type Cursor struct {
	Chain      string
	Service    string
	Cursor     int64
	CursorHash string
	UpdatedAt  time.Time
}
