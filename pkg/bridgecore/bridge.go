package bridgecore

import (
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

const (
	// MinCancelWindow is the smallest cancel window an admin may configure.
	MinCancelWindow = 15 * time.Second
	// MaxCancelWindow is the largest cancel window an admin may configure.
	MaxCancelWindow = 24 * time.Hour
	// DefaultCancelWindow is installed by NewBridge when no override is given.
	DefaultCancelWindow = 300 * time.Second
	// DefaultExpiryGrace is how long a Submitted-but-never-approved record
	// waits before SweepExpired may remove it (§9 open question 4).
	DefaultExpiryGrace = 7 * 24 * time.Hour
)

// NativeTokenRef is the sentinel TokenRef the ledger uses to hold the
// native-currency operator-gas tip in bridge custody between submit and
// approve (or a SweepExpired refund).
var NativeTokenRef = TokenRef{0x01}

// BridgeConfig is the full set of construction-time parameters for a Bridge
// instance. One Bridge instance backs one chain side; the EVM and Cosmos
// adapters each own their own instance.
type BridgeConfig struct {
	ThisChain      ChainTag
	Ledger         TokenLedger
	StandardFeeBps uint32
	FeeRecipient   Account
	// NonceStart is the first deposit nonce this chain issues. Per §9 open
	// question 1 this must be set explicitly per adapter (EVM: 1, Cosmos: 0)
	// — it is never inferred.
	NonceStart   uint64
	CancelWindow time.Duration
	ExpiryGrace  time.Duration
	InitialAdmin Account
	Now          func() time.Time
	EventSink    func(Event)
}

// Bridge is the chain-agnostic core state machine (C7): deposit path,
// pending-withdrawal lifecycle, pause and recovery. It composes the chain
// registry (C3), token registry (C4), asset handler (C5), fee calculator
// (C6) and guard pipeline (C8) behind role-gated entry points.
type Bridge struct {
	thisChain ChainTag
	ledger    TokenLedger

	Chains *ChainRegistry
	Tokens *TokenRegistry
	Fees   *FeeCalculator
	Assets *AssetHandler
	Roles  *roleTable

	guard reentrancyGuard

	mu           sync.RWMutex
	guards       *GuardPipeline
	paused       bool
	cancelWindow time.Duration
	expiryGrace  time.Duration
	feeRecipient Account

	nonceCounter uint64
	deposits     map[uint64]Deposit

	pending   map[CanonicalHash]*PendingWithdraw
	nonceUsed map[ChainTag]map[uint64]bool

	now       func() time.Time
	eventSink func(Event)
}

// NewBridge constructs a Bridge for one chain side.
func NewBridge(cfg BridgeConfig) (*Bridge, error) {
	if cfg.ThisChain.IsZero() {
		return nil, apperr.InvalidInput("this chain tag must not be zero", nil)
	}
	if cfg.Ledger == nil {
		return nil, apperr.InvalidInput("ledger must not be nil", nil)
	}
	fees, err := NewFeeCalculator(cfg.StandardFeeBps, cfg.Ledger.BalanceOf)
	if err != nil {
		return nil, err
	}
	cancelWindow := cfg.CancelWindow
	if cancelWindow == 0 {
		cancelWindow = DefaultCancelWindow
	}
	if cancelWindow < MinCancelWindow || cancelWindow > MaxCancelWindow {
		return nil, apperr.InvalidInput("cancel window out of configured bounds", nil)
	}
	expiryGrace := cfg.ExpiryGrace
	if expiryGrace == 0 {
		expiryGrace = DefaultExpiryGrace
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	roles := newRoleTable()
	if !cfg.InitialAdmin.IsZero() {
		roles.Grant(cfg.InitialAdmin, RoleAdmin)
	}

	b := &Bridge{
		thisChain:    cfg.ThisChain,
		ledger:       cfg.Ledger,
		Chains:       newChainRegistry(),
		Tokens:       newTokenRegistry(),
		Fees:         fees,
		Assets:       NewAssetHandler(cfg.Ledger),
		Roles:        roles,
		guards:       NewGuardPipeline(),
		cancelWindow: cancelWindow,
		expiryGrace:  expiryGrace,
		feeRecipient: cfg.FeeRecipient,
		nonceCounter: cfg.NonceStart,
		deposits:     make(map[uint64]Deposit),
		pending:      make(map[CanonicalHash]*PendingWithdraw),
		nonceUsed:    make(map[ChainTag]map[uint64]bool),
		now:          now,
		eventSink:    cfg.EventSink,
	}
	return b, nil
}

func (b *Bridge) emit(name string, hash CanonicalHash, data map[string]any) {
	if b.eventSink == nil {
		return
	}
	b.eventSink(Event{Name: name, Hash: hash, Data: data})
}

// ThisChain returns the ChainTag this Bridge instance backs.
func (b *Bridge) ThisChain() ChainTag {
	return b.thisChain
}

// Paused reports whether the bridge is currently paused.
func (b *Bridge) Paused() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.paused
}

// CancelWindow returns the configured cancel window.
func (b *Bridge) CancelWindow() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cancelWindow
}

// --- Admin operations ---

// Pause blocks deposit, submit and all withdrawal transitions.
func (b *Bridge) Pause(caller Account) error {
	if err := b.Roles.Require(caller, RoleAdmin); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = true
	b.emit("Paused", CanonicalHash{}, nil)
	return nil
}

// Unpause reverses Pause.
func (b *Bridge) Unpause(caller Account) error {
	if err := b.Roles.Require(caller, RoleAdmin); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = false
	b.emit("Unpaused", CanonicalHash{}, nil)
	return nil
}

// SetCancelWindow updates the cancel window, enforcing [15s, 24h].
func (b *Bridge) SetCancelWindow(caller Account, d time.Duration) error {
	if err := b.Roles.Require(caller, RoleAdmin); err != nil {
		return err
	}
	if d < MinCancelWindow || d > MaxCancelWindow {
		return apperr.InvalidInput("cancel window out of configured bounds", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelWindow = d
	b.emit("CancelWindowSet", CanonicalHash{}, map[string]any{"seconds": d.Seconds()})
	return nil
}

// SetGuard replaces the installed guard pipeline wholesale. A nil pipeline
// reverts to "allow all".
func (b *Bridge) SetGuard(caller Account, pipeline *GuardPipeline) error {
	if err := b.Roles.Require(caller, RoleAdmin); err != nil {
		return err
	}
	if pipeline == nil {
		pipeline = NewGuardPipeline()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.guards = pipeline
	b.emit("GuardSet", CanonicalHash{}, nil)
	return nil
}

// GrantRole grants role to account. Caller must hold RoleAdmin.
func (b *Bridge) GrantRole(caller, account Account, role Role) error {
	if err := b.Roles.Require(caller, RoleAdmin); err != nil {
		return err
	}
	b.Roles.Grant(account, role)
	return nil
}

// RevokeRole revokes role from account. Caller must hold RoleAdmin.
func (b *Bridge) RevokeRole(caller, account Account, role Role) error {
	if err := b.Roles.Require(caller, RoleAdmin); err != nil {
		return err
	}
	b.Roles.Revoke(account, role)
	return nil
}

func (b *Bridge) requireNotPaused() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.paused {
		return apperr.Paused("bridge is paused")
	}
	return nil
}

// --- Deposit path (chain A) ---

// Deposit locks or burns amount of token on this chain towards destAccount
// on destChain, per §4.7. sender is the source-chain account initiating
// the transfer.
func (b *Bridge) Deposit(sender Account, destChain ChainTag, destAccount Account, token TokenRef, amount *big.Int) (*Deposit, CanonicalHash, error) {
	if err := b.requireNotPaused(); err != nil {
		return nil, CanonicalHash{}, err
	}
	if destChain == b.thisChain {
		return nil, CanonicalHash{}, apperr.InvalidInput("destination chain must differ from this chain", nil)
	}
	if destAccount.IsZero() {
		return nil, CanonicalHash{}, apperr.InvalidInput("destination account must not be zero", nil)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, CanonicalHash{}, apperr.InvalidInput("amount must be positive", nil)
	}
	if err := b.Chains.RequireEnabled(destChain); err != nil {
		return nil, CanonicalHash{}, err
	}
	if err := b.Tokens.RequireEnabled(token); err != nil {
		return nil, CanonicalHash{}, err
	}
	outgoing, err := b.Tokens.GetOutgoing(token, destChain)
	if err != nil {
		return nil, CanonicalHash{}, err
	}
	if err := b.Tokens.CheckBounds(token, amount); err != nil {
		return nil, CanonicalHash{}, err
	}

	b.mu.RLock()
	guards := b.guards
	b.mu.RUnlock()
	if err := guards.CheckDeposit(token, amount, sender); err != nil {
		return nil, CanonicalHash{}, err
	}

	if err := b.guard.enter(); err != nil {
		return nil, CanonicalHash{}, err
	}
	defer b.guard.exit()

	feeBps, fee, err := b.Fees.Calculate(sender, amount)
	if err != nil {
		return nil, CanonicalHash{}, err
	}
	net := new(big.Int).Sub(amount, fee)
	if net.Sign() < 0 {
		return nil, CanonicalHash{}, apperr.InvalidInput("fee exceeds gross amount", nil)
	}

	b.mu.RLock()
	feeRecipient := b.feeRecipient
	b.mu.RUnlock()

	state, err := b.Tokens.State(token)
	if err != nil {
		return nil, CanonicalHash{}, err
	}
	switch state.Type {
	case LockUnlock:
		if err := b.Assets.DepositLockUnlock(token, sender, feeRecipient, fee, net); err != nil {
			return nil, CanonicalHash{}, err
		}
	case MintBurn:
		if err := b.Assets.DepositMintBurn(token, sender, feeRecipient, fee, net); err != nil {
			return nil, CanonicalHash{}, err
		}
	}

	b.mu.Lock()
	nonce := b.nonceCounter
	b.nonceCounter++
	dep := Deposit{
		DestChain:   destChain,
		SrcAccount:  sender,
		DestAccount: destAccount,
		Token:       token,
		NetAmount:   net,
		Fee:         fee,
		Nonce:       nonce,
		Timestamp:   b.now(),
	}
	b.deposits[nonce] = dep
	b.mu.Unlock()

	hash := Hash(TransferFields{
		SrcChain:    b.thisChain,
		DestChain:   destChain,
		SrcAccount:  sender,
		DestAccount: destAccount,
		Token:       outgoing.RemoteTokenRef,
		Amount:      net,
		Nonce:       nonce,
	})

	b.emit("Deposit", hash, map[string]any{
		"destChain":   destChain,
		"destAccount": destAccount,
		"srcAccount":  sender,
		"token":       token,
		"netAmount":   net,
		"nonce":       nonce,
		"fee":         fee,
		"feeBps":      feeBps,
	})

	return &dep, hash, nil
}

// DepositByNonce returns the recorded deposit for this chain's nonce.
func (b *Bridge) DepositByNonce(nonce uint64) (Deposit, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.deposits[nonce]
	return d, ok
}

// --- Withdrawal path (chain B) ---

// WithdrawSubmit creates a new pending withdrawal keyed by its canonical
// hash. Anyone may call it; tipPayer optionally funds operatorGas, paid out
// to whichever account later calls Approve.
func (b *Bridge) WithdrawSubmit(srcChain ChainTag, srcAccount, destAccount Account, token TokenRef, amount *big.Int, nonce uint64, tipPayer Account, operatorGas *big.Int) (CanonicalHash, error) {
	if err := b.requireNotPaused(); err != nil {
		return CanonicalHash{}, err
	}
	if destAccount.IsZero() {
		return CanonicalHash{}, apperr.InvalidInput("destination account must not be zero", nil)
	}
	if amount == nil || amount.Sign() <= 0 {
		return CanonicalHash{}, apperr.InvalidInput("amount must be positive", nil)
	}
	if err := b.Chains.RequireEnabled(srcChain); err != nil {
		return CanonicalHash{}, err
	}
	if err := b.Tokens.RequireEnabled(token); err != nil {
		return CanonicalHash{}, err
	}
	incoming, err := b.Tokens.GetIncoming(token, srcChain)
	if err != nil {
		return CanonicalHash{}, err
	}
	destDecimals, err := b.Tokens.Decimals(token)
	if err != nil {
		return CanonicalHash{}, err
	}

	b.mu.RLock()
	guards := b.guards
	b.mu.RUnlock()
	if err := guards.CheckWithdraw(token, amount, destAccount); err != nil {
		return CanonicalHash{}, err
	}

	hash := Hash(TransferFields{
		SrcChain:    srcChain,
		DestChain:   b.thisChain,
		SrcAccount:  srcAccount,
		DestAccount: destAccount,
		Token:       token,
		Amount:      amount,
		Nonce:       nonce,
	})

	if err := b.guard.enter(); err != nil {
		return CanonicalHash{}, err
	}
	defer b.guard.exit()

	b.mu.Lock()
	if _, exists := b.pending[hash]; exists {
		b.mu.Unlock()
		return CanonicalHash{}, apperr.ReplayOrDuplicate("withdrawal already submitted for this hash", nil)
	}
	gas := big.NewInt(0)
	if operatorGas != nil {
		gas = new(big.Int).Set(operatorGas)
	}
	b.pending[hash] = &PendingWithdraw{
		SrcChain:     srcChain,
		DestChain:    b.thisChain,
		SrcAccount:   srcAccount,
		DestAccount:  destAccount,
		Token:        token,
		Recipient:    destAccount,
		Amount:       new(big.Int).Set(amount),
		Nonce:        nonce,
		SrcDecimals:  incoming.SrcDecimals,
		DestDecimals: destDecimals,
		OperatorGas:  gas,
		SubmittedAt:  b.now(),
	}
	b.mu.Unlock()

	if gas.Sign() > 0 {
		if err := b.ledger.Transfer(NativeTokenRef, tipPayer, handlerAccount, gas); err != nil {
			b.mu.Lock()
			delete(b.pending, hash)
			b.mu.Unlock()
			return CanonicalHash{}, apperr.TokenMisbehaved("operator gas tip transfer failed", err)
		}
	}

	b.emit("WithdrawSubmit", hash, map[string]any{
		"srcChain":    srcChain,
		"srcAccount":  srcAccount,
		"destAccount": destAccount,
		"token":       token,
		"amount":      amount,
		"nonce":       nonce,
	})
	return hash, nil
}

func (b *Bridge) nonceUsedLocked(srcChain ChainTag, nonce uint64) bool {
	m, ok := b.nonceUsed[srcChain]
	if !ok {
		return false
	}
	return m[nonce]
}

func (b *Bridge) markNonceUsedLocked(srcChain ChainTag, nonce uint64) {
	m, ok := b.nonceUsed[srcChain]
	if !ok {
		m = make(map[uint64]bool)
		b.nonceUsed[srcChain] = m
	}
	m[nonce] = true
}

// Approve marks hash's withdrawal approved. Caller must hold RoleOperator
// or RoleAdmin. Pays out operatorGas to caller; failure rolls the
// transition back entirely (§4.7, §9 open question 3: the nonce-used map
// is both written and read here).
func (b *Bridge) Approve(caller Account, hash CanonicalHash) error {
	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if !b.Roles.Has(caller, RoleOperator) && !b.Roles.Has(caller, RoleAdmin) {
		return apperr.Forbidden("caller holds neither operator nor admin role")
	}

	if err := b.guard.enter(); err != nil {
		return err
	}
	defer b.guard.exit()

	b.mu.Lock()
	pw, ok := b.pending[hash]
	if !ok {
		b.mu.Unlock()
		return apperr.NotRegistered("no pending withdrawal for hash", nil)
	}
	if pw.Executed {
		b.mu.Unlock()
		return apperr.ReplayOrDuplicate("withdrawal already executed", nil)
	}
	if pw.Approved {
		b.mu.Unlock()
		return apperr.ReplayOrDuplicate("withdrawal already approved", nil)
	}
	if pw.Cancelled {
		b.mu.Unlock()
		return apperr.WindowViolation("withdrawal is cancelled", nil)
	}
	if b.nonceUsedLocked(pw.SrcChain, pw.Nonce) {
		b.mu.Unlock()
		return apperr.ReplayOrDuplicate("source-chain nonce already approved", nil)
	}
	gas := pw.OperatorGas
	b.mu.Unlock()

	if gas != nil && gas.Sign() > 0 {
		if err := b.ledger.Transfer(NativeTokenRef, handlerAccount, caller, gas); err != nil {
			return apperr.OperatorGasPaymentFailed("operator gas payout failed", err)
		}
	}

	b.mu.Lock()
	pw.Approved = true
	pw.ApprovedAt = b.now()
	b.markNonceUsedLocked(pw.SrcChain, pw.Nonce)
	b.mu.Unlock()

	b.emit("WithdrawApprove", hash, map[string]any{"approver": caller})
	return nil
}

// Cancel vetoes an approved, unexecuted withdrawal within its cancel
// window. Caller must hold RoleCanceler strictly — RoleAdmin is explicitly
// rejected (§9 open question 5).
func (b *Bridge) Cancel(caller Account, hash CanonicalHash) error {
	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if b.Roles.Has(caller, RoleAdmin) && !b.Roles.Has(caller, RoleCanceler) {
		return apperr.Forbidden("admin may not cancel; canceler role required")
	}
	if err := b.Roles.Require(caller, RoleCanceler); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	pw, ok := b.pending[hash]
	if !ok {
		return apperr.NotRegistered("no pending withdrawal for hash", nil)
	}
	if !pw.Approved {
		return apperr.WindowViolation("withdrawal not yet approved", nil)
	}
	if pw.Executed {
		return apperr.WindowViolation("withdrawal already executed", nil)
	}
	if pw.Cancelled {
		return apperr.ReplayOrDuplicate("withdrawal already cancelled", nil)
	}
	deadline := pw.ApprovedAt.Add(b.cancelWindow)
	if b.now().After(deadline) {
		return apperr.WindowViolation("cancel window has closed", nil)
	}
	pw.Cancelled = true
	b.emit("WithdrawCancel", hash, map[string]any{"canceler": caller})
	return nil
}

// Uncancel reverses a cancellation and restarts the cancel window.
// Caller must hold RoleOperator.
func (b *Bridge) Uncancel(caller Account, hash CanonicalHash) error {
	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.Roles.Require(caller, RoleOperator); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	pw, ok := b.pending[hash]
	if !ok {
		return apperr.NotRegistered("no pending withdrawal for hash", nil)
	}
	if !pw.Cancelled {
		return apperr.WindowViolation("withdrawal is not cancelled", nil)
	}
	if pw.Executed {
		return apperr.WindowViolation("withdrawal already executed", nil)
	}
	pw.Cancelled = false
	pw.ApprovedAt = b.now()
	b.emit("WithdrawUncancel", hash, map[string]any{"operator": caller})
	return nil
}

// normalizeAmount scales amount from srcDecimals to destDecimals units.
// Scaling up is done in uint256's fixed-width representation so the
// multiply's overflow flag, not a manual bound comparison, is what catches
// an amount that no longer fits the 256-bit range the on-chain side uses;
// scaling down truncates.
func normalizeAmount(amount *big.Int, srcDecimals, destDecimals uint8) (*big.Int, error) {
	if destDecimals == srcDecimals {
		return new(big.Int).Set(amount), nil
	}
	if destDecimals > srcDecimals {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(destDecimals-srcDecimals)), nil)
		amt256, overflow := uint256.FromBig(amount)
		if overflow {
			return nil, apperr.InvalidInput("amount overflows 256-bit range", nil)
		}
		scale256, overflow := uint256.FromBig(scale)
		if overflow {
			return nil, apperr.InvalidInput("scale factor overflows 256-bit range", nil)
		}
		out := new(uint256.Int)
		if _, overflow := out.MulOverflow(amt256, scale256); overflow {
			return nil, apperr.InvalidInput("normalized amount overflows 256-bit range", nil)
		}
		return out.ToBig(), nil
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(srcDecimals-destDecimals)), nil)
	out := new(big.Int).Quo(amount, scale)
	return out, nil
}

func (b *Bridge) executePreconditions(hash CanonicalHash, wantType TokenType) (*PendingWithdraw, *big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pw, ok := b.pending[hash]
	if !ok {
		return nil, nil, apperr.NotRegistered("no pending withdrawal for hash", nil)
	}
	if !pw.Approved {
		return nil, nil, apperr.WindowViolation("withdrawal not approved", nil)
	}
	if pw.Cancelled {
		return nil, nil, apperr.WindowViolation("withdrawal cancelled", nil)
	}
	if pw.Executed {
		return nil, nil, apperr.ReplayOrDuplicate("withdrawal already executed", nil)
	}
	deadline := pw.ApprovedAt.Add(b.cancelWindow)
	if !b.now().After(deadline) {
		return nil, nil, apperr.WindowViolation("cancel window has not yet closed", nil)
	}
	state, err := b.Tokens.State(pw.Token)
	if err != nil {
		return nil, nil, err
	}
	if state.Type != wantType {
		return nil, nil, apperr.InvalidInput("token type does not match execute variant", nil)
	}
	payout, err := normalizeAmount(pw.Amount, pw.SrcDecimals, pw.DestDecimals)
	if err != nil {
		return nil, nil, err
	}
	return pw, payout, nil
}

// ExecuteUnlock pays out an approved, unvetoed LockUnlock withdrawal once
// the cancel window has strictly closed.
func (b *Bridge) ExecuteUnlock(hash CanonicalHash) error {
	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.guard.enter(); err != nil {
		return err
	}
	defer b.guard.exit()

	pw, payout, err := b.executePreconditions(hash, LockUnlock)
	if err != nil {
		return err
	}
	if err := b.Assets.ExecuteUnlock(pw.Token, pw.Recipient, payout); err != nil {
		return err
	}
	b.mu.Lock()
	pw.Executed = true
	b.mu.Unlock()
	b.emit("WithdrawExecute", hash, map[string]any{"variant": "unlock", "payout": payout})
	return nil
}

// ExecuteMint pays out an approved, unvetoed MintBurn withdrawal once the
// cancel window has strictly closed.
func (b *Bridge) ExecuteMint(hash CanonicalHash) error {
	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.guard.enter(); err != nil {
		return err
	}
	defer b.guard.exit()

	pw, payout, err := b.executePreconditions(hash, MintBurn)
	if err != nil {
		return err
	}
	if err := b.Assets.ExecuteMint(pw.Token, pw.Recipient, payout); err != nil {
		return err
	}
	b.mu.Lock()
	pw.Executed = true
	b.mu.Unlock()
	b.emit("WithdrawExecute", hash, map[string]any{"variant": "mint", "payout": payout})
	return nil
}

// PendingWithdrawal returns a snapshot copy of hash's record, if any.
func (b *Bridge) PendingWithdrawal(hash CanonicalHash) (PendingWithdraw, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pw, ok := b.pending[hash]
	if !ok {
		return PendingWithdraw{}, false
	}
	return *pw, true
}

// Recover performs an admin-only, paused-only emergency withdrawal of
// amount of token to recipient.
func (b *Bridge) Recover(caller Account, token TokenRef, amount *big.Int, recipient Account) error {
	if err := b.Roles.Require(caller, RoleAdmin); err != nil {
		return err
	}
	if !b.Paused() {
		return apperr.InvalidInput("recover requires the bridge to be paused", nil)
	}
	state, err := b.Tokens.State(token)
	if err != nil {
		return err
	}
	if err := b.Assets.Recover(token, state.Type, recipient, amount); err != nil {
		return err
	}
	b.emit("Recover", CanonicalHash{}, map[string]any{"token": token, "amount": amount, "recipient": recipient})
	return nil
}

// SweepExpired removes Submitted-but-never-approved records older than the
// configured expiry grace period and refunds their operatorGas tip to the
// originating source account (§9 open question 4). Permissionless.
func (b *Bridge) SweepExpired() []CanonicalHash {
	now := b.now()
	b.mu.Lock()
	type expiredEntry struct {
		hash CanonicalHash
		pw   PendingWithdraw
	}
	var expired []expiredEntry
	for hash, pw := range b.pending {
		if pw.Approved || pw.Cancelled || pw.Executed {
			continue
		}
		if now.Sub(pw.SubmittedAt) < b.expiryGrace {
			continue
		}
		expired = append(expired, expiredEntry{hash: hash, pw: *pw})
		delete(b.pending, hash)
	}
	b.mu.Unlock()

	hashes := make([]CanonicalHash, 0, len(expired))
	for _, e := range expired {
		if e.pw.OperatorGas != nil && e.pw.OperatorGas.Sign() > 0 {
			_ = b.ledger.Transfer(NativeTokenRef, handlerAccount, e.pw.SrcAccount, e.pw.OperatorGas)
		}
		b.emit("WithdrawExpired", e.hash, nil)
		hashes = append(hashes, e.hash)
	}
	return hashes
}

