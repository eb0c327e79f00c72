package bridgecore

import (
	"math/big"
	"sync"
	"time"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// AccountGuard is consulted with the account initiating a deposit or
// withdrawal, independent of token or amount.
type AccountGuard interface {
	CheckAccount(account Account) error
}

// DepositGuard is consulted on the deposit path.
type DepositGuard interface {
	CheckDeposit(token TokenRef, amount *big.Int, sender Account) error
}

// WithdrawGuard is consulted on the withdrawal path.
type WithdrawGuard interface {
	CheckWithdraw(token TokenRef, amount *big.Int, sender Account) error
}

// GuardPipeline is the ordered set of guard modules consulted on deposit
// and withdrawal (§4.8, C8). Any rejection aborts the caller. An empty
// pipeline is equivalent to "allow all"; installing guards is an
// admin-gated operation performed through the owning Bridge.
type GuardPipeline struct {
	mu        sync.RWMutex
	accounts  []AccountGuard
	deposits  []DepositGuard
	withdraws []WithdrawGuard
}

// NewGuardPipeline returns an empty pipeline.
func NewGuardPipeline() *GuardPipeline {
	return &GuardPipeline{}
}

// AddAccountGuard appends g to the account set, run on both deposits and
// withdrawals.
func (p *GuardPipeline) AddAccountGuard(g AccountGuard) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = append(p.accounts, g)
}

// AddDepositGuard appends g to the deposit-only set.
func (p *GuardPipeline) AddDepositGuard(g DepositGuard) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deposits = append(p.deposits, g)
}

// AddWithdrawGuard appends g to the withdraw-only set.
func (p *GuardPipeline) AddWithdrawGuard(g WithdrawGuard) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.withdraws = append(p.withdraws, g)
}

// CheckDeposit runs the account set against sender, then the deposit set,
// in insertion order, aborting on the first rejection.
func (p *GuardPipeline) CheckDeposit(token TokenRef, amount *big.Int, sender Account) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, g := range p.accounts {
		if err := g.CheckAccount(sender); err != nil {
			return err
		}
	}
	for _, g := range p.deposits {
		if err := g.CheckDeposit(token, amount, sender); err != nil {
			return err
		}
	}
	return nil
}

// CheckWithdraw runs the account set against sender, then the withdraw
// set, in insertion order, aborting on the first rejection.
func (p *GuardPipeline) CheckWithdraw(token TokenRef, amount *big.Int, sender Account) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, g := range p.accounts {
		if err := g.CheckAccount(sender); err != nil {
			return err
		}
	}
	for _, g := range p.withdraws {
		if err := g.CheckWithdraw(token, amount, sender); err != nil {
			return err
		}
	}
	return nil
}

// BlacklistGuard rejects any account present in its set.
type BlacklistGuard struct {
	mu      sync.RWMutex
	blocked map[Account]bool
}

// NewBlacklistGuard returns an empty BlacklistGuard.
func NewBlacklistGuard() *BlacklistGuard {
	return &BlacklistGuard{blocked: make(map[Account]bool)}
}

// Block adds account to the blacklist.
func (g *BlacklistGuard) Block(account Account) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocked[account] = true
}

// Unblock removes account from the blacklist.
func (g *BlacklistGuard) Unblock(account Account) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.blocked, account)
}

// CheckAccount implements AccountGuard.
func (g *BlacklistGuard) CheckAccount(account Account) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.blocked[account] {
		return apperr.Forbidden("account is blacklisted")
	}
	return nil
}

// rateLimitBucket is a single token's fixed 24h window bucket.
type rateLimitBucket struct {
	windowStart time.Time
	used        *big.Int
}

// RateLimitGuard enforces a fixed 24h per-token cumulative amount limit on
// both deposits and withdrawals, consulted through the deposit and
// withdraw sets respectively.
type RateLimitGuard struct {
	mu      sync.Mutex
	limits  map[TokenRef]*big.Int
	buckets map[TokenRef]*rateLimitBucket
	now     func() time.Time
}

// NewRateLimitGuard returns a RateLimitGuard with no configured limits
// (every token is unbounded until SetLimit is called).
func NewRateLimitGuard(now func() time.Time) *RateLimitGuard {
	if now == nil {
		now = time.Now
	}
	return &RateLimitGuard{
		limits:  make(map[TokenRef]*big.Int),
		buckets: make(map[TokenRef]*rateLimitBucket),
		now:     now,
	}
}

// SetLimit installs token's 24h cumulative limit. A nil limit removes it.
func (g *RateLimitGuard) SetLimit(token TokenRef, limit *big.Int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if limit == nil {
		delete(g.limits, token)
		return
	}
	g.limits[token] = limit
}

func (g *RateLimitGuard) check(token TokenRef, amount *big.Int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	limit, ok := g.limits[token]
	if !ok {
		return nil
	}
	now := g.now()
	bucket, ok := g.buckets[token]
	if !ok {
		bucket = &rateLimitBucket{windowStart: now, used: big.NewInt(0)}
		g.buckets[token] = bucket
	}
	if !now.Before(bucket.windowStart.Add(24 * time.Hour)) {
		bucket.windowStart = now
		bucket.used = big.NewInt(0)
	}
	attempted := new(big.Int).Add(bucket.used, amount)
	if attempted.Cmp(limit) > 0 {
		return apperr.InvalidInput("per-token 24h rate limit exceeded", nil)
	}
	bucket.used = attempted
	return nil
}

// CheckDeposit implements DepositGuard.
func (g *RateLimitGuard) CheckDeposit(token TokenRef, amount *big.Int, _ Account) error {
	return g.check(token, amount)
}

// CheckWithdraw implements WithdrawGuard.
func (g *RateLimitGuard) CheckWithdraw(token TokenRef, amount *big.Int, _ Account) error {
	return g.check(token, amount)
}
