// Package canceler runs a single ticker-driven sweep loop that drives the
// reverse check-then-cancel flow: for every pending withdrawal not yet
// executed or cancelled, it re-validates the transfer against guard/registry state and
// cancels it if it no longer should proceed (e.g. the account was
// blacklisted or the token disabled after submission). It shares
// pkg/store's dedupe tables the observer already populates, and the same
// Engine-style stopCh/wg skeleton as pkg/operator, grounded on the
// teacher's pkg/relayer/engine.go.
package canceler

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/watchtower-bridge/internal/metrics"
	"github.com/chainsafe/watchtower-bridge/pkg/bridgecore"
	"github.com/chainsafe/watchtower-bridge/pkg/chainadapter"
	"github.com/chainsafe/watchtower-bridge/pkg/store"
)

// Validator re-checks a pending withdrawal and reports whether it should
// still be allowed to proceed. A concrete implementation wraps the same
// guard pipeline the destination bridgecore.Bridge enforces on Approve, so
// the canceler can veto before the cancel window closes.
type Validator interface {
	StillValid(ctx context.Context, hash bridgecore.CanonicalHash, pw bridgecore.PendingWithdraw) (bool, string, error)
}

// Config tunes the canceler's polling behavior.
type Config struct {
	DestChainName string
	PollInterval  time.Duration
	BatchLimit    int
}

// Canceler re-validates pending withdrawals and cancels the ones that no
// longer pass the guard pipeline, before the cancel window closes.
type Canceler struct {
	cfg       Config
	adapter   chainadapter.ChainAdapter
	validator Validator
	store     store.Store
	logger    *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Canceler.
func New(cfg Config, adapter chainadapter.ChainAdapter, validator Validator, st store.Store, logger *zap.Logger) *Canceler {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchLimit == 0 {
		cfg.BatchLimit = 50
	}
	return &Canceler{cfg: cfg, adapter: adapter, validator: validator, store: st, logger: logger, stopCh: make(chan struct{})}
}

// Start runs the check-then-cancel loop until ctx is cancelled or Stop is called.
func (c *Canceler) Start(ctx context.Context) error {
	c.logger.Info("starting canceler", zap.String("dest_chain", c.cfg.DestChainName))

	c.wg.Add(1)
	go c.loop(ctx)

	select {
	case <-ctx.Done():
	case <-c.stopCh:
	}
	c.wg.Wait()
	return ctx.Err()
}

// Stop signals the loop to exit and waits for it to finish.
func (c *Canceler) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Canceler) loop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			if err := c.sweep(ctx); err != nil {
				c.logger.Error("canceler sweep failed", zap.Error(err))
				metrics.ErrorsTotal.WithLabelValues("canceler", "sweep").Inc()
			}
		}
	}
}

// sweep re-checks every hash the observer has recorded as deposited but not
// yet executed or cancelled, and cancels the ones the validator rejects.
// It deliberately uses the same PendingApproval/PendingExecution union the
// operator sweeps, since a withdrawal remains cancellable right up until
// ExecuteUnlock/ExecuteMint succeeds.
func (c *Canceler) sweep(ctx context.Context) error {
	pendingApproval, err := c.store.PendingApproval(ctx, c.cfg.DestChainName, c.cfg.BatchLimit)
	if err != nil {
		return fmt.Errorf("canceler: list pending approval: %w", err)
	}
	pendingExecution, err := c.store.PendingExecution(ctx, c.cfg.DestChainName, c.cfg.BatchLimit)
	if err != nil {
		return fmt.Errorf("canceler: list pending execution: %w", err)
	}

	for _, hexHash := range append(append([]string{}, pendingApproval...), pendingExecution...) {
		hash, err := parseHash(hexHash)
		if err != nil {
			c.logger.Warn("skipping malformed hash", zap.String("hash", hexHash), zap.Error(err))
			continue
		}
		c.checkAndCancel(ctx, hash)
	}
	return nil
}

func (c *Canceler) checkAndCancel(ctx context.Context, hash bridgecore.CanonicalHash) {
	pw, ok, err := c.adapter.PendingWithdrawal(ctx, hash)
	if err != nil || !ok || pw.Cancelled || pw.Executed {
		return
	}

	valid, reason, err := c.validator.StillValid(ctx, hash, pw)
	if err != nil {
		c.logger.Warn("validator check failed", zap.String("hash", fmt.Sprintf("%x", hash)), zap.Error(err))
		return
	}
	if valid {
		return
	}

	if err := c.adapter.Cancel(ctx, hash); err != nil {
		c.logger.Warn("cancel failed", zap.String("hash", fmt.Sprintf("%x", hash)), zap.String("reason", reason), zap.Error(err))
		metrics.CancelsTotal.WithLabelValues(c.cfg.DestChainName, "failed").Inc()
		return
	}

	if err := c.store.RecordCancel(ctx, &store.Cancel{
		Hash: fmt.Sprintf("%x", hash), DestChain: c.cfg.DestChainName, Canceler: "canceler", Reason: reason,
	}); err != nil {
		c.logger.Error("failed to persist cancel", zap.String("hash", fmt.Sprintf("%x", hash)), zap.Error(err))
	}
	c.logger.Info("cancelled withdrawal", zap.String("hash", fmt.Sprintf("%x", hash)), zap.String("reason", reason))
	metrics.CancelsTotal.WithLabelValues(c.cfg.DestChainName, "completed").Inc()
}

func parseHash(s string) (bridgecore.CanonicalHash, error) {
	var h bridgecore.CanonicalHash
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(h) {
		return h, fmt.Errorf("invalid hash %q", s)
	}
	copy(h[:], b)
	return h, nil
}
