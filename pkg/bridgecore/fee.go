package bridgecore

import (
	"math/big"
	"sync"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// MaxFeeBps is the hard cap on any fee rate (1%), enforced both when a rate
// is set and when one is calculated.
const MaxFeeBps = 100

const feeDenominator = 10_000

// FeeEvent is emitted whenever a rate is set or cleared (§4.6).
type FeeEvent struct {
	Kind    string // "standard_rate_set", "override_set", "override_cleared", "discount_set"
	Account Account
	Bps     uint32
}

// FeeCalculator computes the deposit fee with three priority tiers:
// per-account override, holder discount, standard rate (§4.6, C6).
type FeeCalculator struct {
	mu sync.RWMutex

	standardBps uint32
	overrides   map[Account]uint32

	discountBps       uint32
	discountThreshold *big.Int
	referenceToken    TokenRef
	discountSet       bool

	balanceOf func(token TokenRef, account Account) (*big.Int, error)

	events []FeeEvent
}

// NewFeeCalculator constructs a FeeCalculator with the given standard rate
// and a balance lookup function for the holder-discount reference token
// (typically a TokenLedger.BalanceOf bound to the bridge's ledger).
func NewFeeCalculator(standardBps uint32, balanceOf func(TokenRef, Account) (*big.Int, error)) (*FeeCalculator, error) {
	if standardBps > MaxFeeBps {
		return nil, apperr.InvalidInput("fee rate exceeds maximum of 100 bps", nil)
	}
	return &FeeCalculator{
		standardBps: standardBps,
		overrides:   make(map[Account]uint32),
		balanceOf:   balanceOf,
	}, nil
}

// SetStandardRate replaces the default fee rate applied when no override or
// discount applies.
func (f *FeeCalculator) SetStandardRate(bps uint32) error {
	if bps > MaxFeeBps {
		return apperr.InvalidInput("fee rate exceeds maximum of 100 bps", nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.standardBps = bps
	f.events = append(f.events, FeeEvent{Kind: "standard_rate_set", Bps: bps})
	return nil
}

// SetOverride installs a per-account fee rate, taking priority over both
// the discount and the standard rate.
func (f *FeeCalculator) SetOverride(account Account, bps uint32) error {
	if bps > MaxFeeBps {
		return apperr.InvalidInput("fee rate exceeds maximum of 100 bps", nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[account] = bps
	f.events = append(f.events, FeeEvent{Kind: "override_set", Account: account, Bps: bps})
	return nil
}

// ClearOverride removes account's per-account rate, falling back to the
// discount or standard tier.
func (f *FeeCalculator) ClearOverride(account Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.overrides, account)
	f.events = append(f.events, FeeEvent{Kind: "override_cleared", Account: account})
}

// SetDiscount installs the holder discount: accounts whose balance of
// referenceToken is at or above threshold pay bps instead of the standard
// rate, unless they also hold an override.
func (f *FeeCalculator) SetDiscount(referenceToken TokenRef, threshold *big.Int, bps uint32) error {
	if bps > MaxFeeBps {
		return apperr.InvalidInput("fee rate exceeds maximum of 100 bps", nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.referenceToken = referenceToken
	f.discountThreshold = threshold
	f.discountBps = bps
	f.discountSet = true
	f.events = append(f.events, FeeEvent{Kind: "discount_set", Bps: bps})
	return nil
}

// Calculate returns the fee rate and amount for depositor depositing gross.
// Balance queries for the holder discount are wrapped in an exception-safe
// boundary: any failure (RPC error, missing account) falls back to the
// standard rate rather than propagating.
func (f *FeeCalculator) Calculate(depositor Account, gross *big.Int) (feeBps uint32, feeAmount *big.Int, err error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	bps := f.standardBps
	if override, ok := f.overrides[depositor]; ok {
		bps = override
	} else if f.discountSet && f.balanceOf != nil {
		bal, berr := f.balanceOf(f.referenceToken, depositor)
		if berr == nil && bal != nil && bal.Cmp(f.discountThreshold) >= 0 {
			bps = f.discountBps
		}
	}

	if bps > MaxFeeBps {
		return 0, nil, apperr.InvalidInput("resolved fee rate exceeds maximum of 100 bps", nil)
	}

	amount := new(big.Int).Mul(gross, big.NewInt(int64(bps)))
	amount.Div(amount, big.NewInt(feeDenominator))
	return bps, amount, nil
}

// Events returns every rate-change event recorded so far.
func (f *FeeCalculator) Events() []FeeEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]FeeEvent, len(f.events))
	copy(out, f.events)
	return out
}
