package bridgecore

import (
	"math/big"
	"sync"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// TokenRegistry holds the per-token state (type, enablement, per-destination
// outgoing mappings, per-source incoming mappings, bounds and rate limit)
// described in §4.4 (C4).
type TokenRegistry struct {
	mu     sync.RWMutex
	tokens map[TokenRef]*TokenState
}

func newTokenRegistry() *TokenRegistry {
	return &TokenRegistry{tokens: make(map[TokenRef]*TokenState)}
}

// RegisterToken adds token with the given type, enabled, with empty
// mappings and no bounds or rate limit. Re-registering an existing token
// is rejected; use the Set* operations to modify one in place.
func (r *TokenRegistry) RegisterToken(token TokenRef, typ TokenType, decimals uint8) error {
	if token.IsZero() {
		return apperr.InvalidInput("token reference must not be zero", nil)
	}
	if decimals > 77 {
		return apperr.InvalidInput("decimals out of range", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[token]; exists {
		return apperr.InvalidInput("token already registered", nil)
	}
	r.tokens[token] = &TokenState{
		Type:     typ,
		Enabled:  true,
		Decimals: decimals,
		Outgoing: make(map[ChainTag]OutgoingMapping),
		Incoming: make(map[ChainTag]IncomingMapping),
	}
	return nil
}

// UnregisterToken removes token and every outgoing/incoming mapping for it,
// leaving no dangling entries behind (§4.4, §9 open question 6).
func (r *TokenRegistry) UnregisterToken(token TokenRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[token]; !exists {
		return apperr.NotRegistered("token not registered", nil)
	}
	delete(r.tokens, token)
	return nil
}

func (r *TokenRegistry) mustGet(token TokenRef) (*TokenState, error) {
	st, ok := r.tokens[token]
	if !ok {
		return nil, apperr.NotRegistered("token not registered", nil)
	}
	return st, nil
}

// SetType changes token's handling mode.
func (r *TokenRegistry) SetType(token TokenRef, typ TokenType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.mustGet(token)
	if err != nil {
		return err
	}
	st.Type = typ
	return nil
}

// SetEnabled toggles token's enabled flag.
func (r *TokenRegistry) SetEnabled(token TokenRef, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.mustGet(token)
	if err != nil {
		return err
	}
	st.Enabled = enabled
	return nil
}

// SetOutgoing sets the mapping used when token is deposited towards
// destChain. A zero remoteTokenRef is rejected at write-time (defense in
// depth alongside the read-time check in GetOutgoing).
func (r *TokenRegistry) SetOutgoing(token TokenRef, destChain ChainTag, remoteTokenRef TokenRef, remoteDecimals uint8) error {
	if remoteTokenRef.IsZero() {
		return apperr.InvalidInput("remote token reference must not be zero", nil)
	}
	if remoteDecimals > 77 {
		return apperr.InvalidInput("remote decimals out of range", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.mustGet(token)
	if err != nil {
		return err
	}
	st.Outgoing[destChain] = OutgoingMapping{RemoteTokenRef: remoteTokenRef, RemoteDecimals: remoteDecimals}
	return nil
}

// GetOutgoing returns token's mapping towards destChain, or a NotRegistered
// error if none exists or the resolved remote reference is zero.
func (r *TokenRegistry) GetOutgoing(token TokenRef, destChain ChainTag) (OutgoingMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, err := r.mustGet(token)
	if err != nil {
		return OutgoingMapping{}, err
	}
	m, ok := st.Outgoing[destChain]
	if !ok || m.RemoteTokenRef.IsZero() {
		return OutgoingMapping{}, apperr.NotRegistered("no outgoing mapping for destination chain", nil)
	}
	return m, nil
}

// SetIncoming sets the mapping accepted for withdrawals arriving from
// srcChain.
func (r *TokenRegistry) SetIncoming(token TokenRef, srcChain ChainTag, remoteTokenRef TokenRef, srcDecimals uint8, enabled bool) error {
	if remoteTokenRef.IsZero() {
		return apperr.InvalidInput("remote token reference must not be zero", nil)
	}
	if srcDecimals > 77 {
		return apperr.InvalidInput("source decimals out of range", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.mustGet(token)
	if err != nil {
		return err
	}
	st.Incoming[srcChain] = IncomingMapping{RemoteTokenRef: remoteTokenRef, SrcDecimals: srcDecimals, Enabled: enabled}
	return nil
}

// GetIncoming returns token's mapping for withdrawals arriving from
// srcChain. The mapping must exist and be enabled; existence under this
// exact (token, srcChain) key is itself the proof that token "matches" the
// source-side asset (§4.9's submit precondition).
func (r *TokenRegistry) GetIncoming(token TokenRef, srcChain ChainTag) (IncomingMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, err := r.mustGet(token)
	if err != nil {
		return IncomingMapping{}, err
	}
	m, ok := st.Incoming[srcChain]
	if !ok {
		return IncomingMapping{}, apperr.NotRegistered("no incoming mapping for source chain", nil)
	}
	if !m.Enabled {
		return IncomingMapping{}, apperr.Disabled("incoming mapping disabled", nil)
	}
	return m, nil
}

// SetBounds sets token's optional [min, max] single-transfer bound. Either
// end may be nil to leave it unbounded.
func (r *TokenRegistry) SetBounds(token TokenRef, min, max *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.mustGet(token)
	if err != nil {
		return err
	}
	st.Bounds = &AmountBounds{Min: min, Max: max}
	return nil
}

// SetRateLimit installs or replaces token's fixed 24h rate limit. A nil
// limitPerWindow removes the limit.
func (r *TokenRegistry) SetRateLimit(token TokenRef, limitPerWindow *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.mustGet(token)
	if err != nil {
		return err
	}
	if limitPerWindow == nil {
		st.Limit = nil
		return nil
	}
	st.Limit = &RateLimit{LimitPerWindow: limitPerWindow, Used: big.NewInt(0)}
	return nil
}

// Decimals returns token's own decimal count.
func (r *TokenRegistry) Decimals(token TokenRef) (uint8, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, err := r.mustGet(token)
	if err != nil {
		return 0, err
	}
	return st.Decimals, nil
}

// State returns a snapshot copy of token's registry state.
func (r *TokenRegistry) State(token TokenRef) (TokenState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, err := r.mustGet(token)
	if err != nil {
		return TokenState{}, err
	}
	return *st, nil
}

// RequireEnabled returns a NotRegistered or Disabled error if token is not
// a currently enabled token.
func (r *TokenRegistry) RequireEnabled(token TokenRef) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, err := r.mustGet(token)
	if err != nil {
		return err
	}
	if !st.Enabled {
		return apperr.Disabled("token disabled", nil)
	}
	return nil
}

// CheckBounds validates amount against token's configured bounds, if any.
func (r *TokenRegistry) CheckBounds(token TokenRef, amount *big.Int) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, err := r.mustGet(token)
	if err != nil {
		return err
	}
	if st.Bounds == nil {
		return nil
	}
	if st.Bounds.Min != nil && amount.Cmp(st.Bounds.Min) < 0 {
		return apperr.InvalidInput("amount below configured minimum", nil)
	}
	if st.Bounds.Max != nil && amount.Cmp(st.Bounds.Max) > 0 {
		return apperr.InvalidInput("amount above configured maximum", nil)
	}
	return nil
}
