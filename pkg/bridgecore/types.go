// Package bridgecore implements the chain-agnostic core of the watchtower
// bridge: address/chain encoding, the canonical transfer hash, the chain
// and token registries, the asset handler, the fee calculator, the guard
// pipeline and the withdrawal state machine. The same *Bridge type backs
// both the EVM-side and the Cosmos-side adapter; it holds no knowledge of
// either chain's wire format.
package bridgecore

import (
	"math/big"
	"time"
)

// ChainTag is a 4-byte, non-zero identifier for a chain.
type ChainTag [4]byte

// ZeroChainTag is the reserved, always-invalid tag.
var ZeroChainTag = ChainTag{}

// IsZero reports whether t is the reserved zero tag.
func (t ChainTag) IsZero() bool {
	return t == ZeroChainTag
}

// Account is a 32-byte, left-padded account identifier, lossless across
// both the 20-byte EVM representation and the 20/32-byte Cosmos
// representation.
type Account [32]byte

// IsZero reports whether a is the all-zero account.
func (a Account) IsZero() bool {
	return a == Account{}
}

// TokenRef is a 32-byte token identifier: keccak256(denom) for native
// Cosmos denoms, or the left-padded contract address for EVM tokens.
type TokenRef [32]byte

// IsZero reports whether r is the all-zero token reference.
func (r TokenRef) IsZero() bool {
	return r == TokenRef{}
}

// TokenType selects how a token is handled on deposit/withdrawal.
type TokenType int

const (
	// LockUnlock tokens are locked in a handler-owned balance on deposit and
	// unlocked from it on withdrawal.
	LockUnlock TokenType = iota
	// MintBurn tokens are burned from the sender on deposit and minted to
	// the recipient on withdrawal.
	MintBurn
)

func (t TokenType) String() string {
	if t == MintBurn {
		return "mint_burn"
	}
	return "lock_unlock"
}

// OutgoingMapping describes how a local token maps onto a remote chain for
// deposits.
type OutgoingMapping struct {
	RemoteTokenRef TokenRef
	RemoteDecimals uint8
}

// IncomingMapping describes how a remote token maps onto a local token for
// withdrawals.
type IncomingMapping struct {
	RemoteTokenRef TokenRef
	SrcDecimals    uint8
	Enabled        bool
}

// RateLimit is a fixed 24h window limit on bridged amount.
type RateLimit struct {
	LimitPerWindow *big.Int
	WindowStart    time.Time
	Used           *big.Int
}

// AmountBounds is an optional [min, max] bound on a single bridge transfer.
type AmountBounds struct {
	Min *big.Int // nil means unbounded below zero
	Max *big.Int // nil means unbounded above
}

// TokenState is the per-token registry record (C4).
type TokenState struct {
	Type     TokenType
	Enabled  bool
	Decimals uint8 // this token's own decimal count, used as destDecimals on withdrawal
	Outgoing map[ChainTag]OutgoingMapping
	Incoming map[ChainTag]IncomingMapping
	Bounds   *AmountBounds
	Limit    *RateLimit
}

// PendingWithdraw is the destination-chain record for an in-flight
// withdrawal, keyed by its CanonicalHash.
type PendingWithdraw struct {
	SrcChain    ChainTag
	DestChain   ChainTag
	SrcAccount  Account
	DestAccount Account
	Token       TokenRef
	Recipient   Account
	Amount      *big.Int // source-chain units
	Nonce       uint64
	SrcDecimals uint8
	DestDecimals uint8
	OperatorGas *big.Int

	SubmittedAt time.Time
	ApprovedAt  time.Time

	Approved bool
	Cancelled bool
	Executed bool
}

// Deposit is the source-chain record created by a successful Deposit call.
type Deposit struct {
	DestChain   ChainTag
	SrcAccount  Account
	DestAccount Account
	Token       TokenRef
	NetAmount   *big.Int
	Fee         *big.Int
	Nonce       uint64
	Timestamp   time.Time
}

// Event is a typed notification the bridge emits on every state change, the
// in-process analogue of an on-chain log.
type Event struct {
	Name string
	Hash CanonicalHash
	Data map[string]any
}
