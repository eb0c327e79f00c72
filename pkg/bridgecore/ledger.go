package bridgecore

import (
	"math/big"
	"sync"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// TokenLedger is the external balance boundary the Asset Handler calls
// through. A chain adapter implements it against its real token contracts
// or native balances; MemoryLedger is the in-process reference
// implementation used when no live chain is wired in.
type TokenLedger interface {
	BalanceOf(token TokenRef, account Account) (*big.Int, error)
	Transfer(token TokenRef, from, to Account, amount *big.Int) error
	Mint(token TokenRef, to Account, amount *big.Int) error
	Burn(token TokenRef, from Account, amount *big.Int) error
}

// MemoryLedger is a straightforward in-process TokenLedger: per-token,
// per-account balances with no external call surface to misbehave.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[TokenRef]map[Account]*big.Int
}

// NewMemoryLedger returns an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[TokenRef]map[Account]*big.Int)}
}

// Credit increases account's balance of token by amount; used to seed
// balances outside the bridge's own deposit/mint paths (e.g. test fixtures,
// or a reconciliation top-up).
func (l *MemoryLedger) Credit(token TokenRef, account Account, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(token, account, amount)
}

func (l *MemoryLedger) add(token TokenRef, account Account, delta *big.Int) {
	m, ok := l.balances[token]
	if !ok {
		m = make(map[Account]*big.Int)
		l.balances[token] = m
	}
	cur, ok := m[account]
	if !ok {
		cur = big.NewInt(0)
	}
	m[account] = new(big.Int).Add(cur, delta)
}

func (l *MemoryLedger) BalanceOf(token TokenRef, account Account) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.balances[token]
	if !ok {
		return big.NewInt(0), nil
	}
	bal, ok := m[account]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (l *MemoryLedger) Transfer(token TokenRef, from, to Account, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromBal := l.balances[token][from]
	if fromBal == nil {
		fromBal = big.NewInt(0)
	}
	if fromBal.Cmp(amount) < 0 {
		return apperr.TokenMisbehaved("insufficient balance for transfer", nil)
	}
	l.add(token, from, new(big.Int).Neg(amount))
	l.add(token, to, amount)
	return nil
}

func (l *MemoryLedger) Mint(token TokenRef, to Account, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(token, to, amount)
	return nil
}

func (l *MemoryLedger) Burn(token TokenRef, from Account, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromBal := l.balances[token][from]
	if fromBal == nil {
		fromBal = big.NewInt(0)
	}
	if fromBal.Cmp(amount) < 0 {
		return apperr.TokenMisbehaved("insufficient balance for burn", nil)
	}
	l.add(token, from, new(big.Int).Neg(amount))
	return nil
}
