// Package operator drives pending withdrawals through the
// submit→approve→execute lifecycle, generalizing the teacher's
// pkg/relayer/engine.go Engine (worker goroutines, stopCh/wg, periodic
// reconciliation, readiness tracking) from a hardcoded Canton<->Ethereum
// pair to any chainadapter.ChainAdapter pair. Each hash is processed under
// a per-hash single-flight lock, the generalization of the teacher's
// per-transfer store.GetTransfer/CreateTransfer existence check.
package operator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"github.com/chainsafe/watchtower-bridge/internal/metrics"
	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
	"github.com/chainsafe/watchtower-bridge/pkg/bridgecore"
	"github.com/chainsafe/watchtower-bridge/pkg/chainadapter"
	"github.com/chainsafe/watchtower-bridge/pkg/store"
)

// Config tunes the operator's polling/reconciliation behavior.
type Config struct {
	DestChainName       string
	PollInterval        time.Duration
	ReconcileInterval   time.Duration
	BatchLimit          int
	StuckAfter          time.Duration
}

// Operator approves and executes pending withdrawals on one destination
// chain adapter, backed by pkg/store for crash-resumable bookkeeping.
type Operator struct {
	cfg     Config
	adapter chainadapter.ChainAdapter
	store   store.Store
	logger  *zap.Logger

	// instanceID seeds this process's HKDF fencing tokens, so two operator
	// instances racing on the same hash produce distinguishable tokens in
	// logs even though only one ever wins the in-process lock below.
	instanceID uuid.UUID

	locksMu sync.Mutex
	locks   map[bridgecore.CanonicalHash]*sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs an Operator.
func New(cfg Config, adapter chainadapter.ChainAdapter, st store.Store, logger *zap.Logger) *Operator {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = 5 * time.Minute
	}
	if cfg.BatchLimit == 0 {
		cfg.BatchLimit = 50
	}
	if cfg.StuckAfter == 0 {
		cfg.StuckAfter = 30 * time.Minute
	}
	return &Operator{
		cfg:        cfg,
		adapter:    adapter,
		store:      st,
		logger:     logger,
		instanceID: uuid.New(),
		locks:      make(map[bridgecore.CanonicalHash]*sync.Mutex),
		stopCh:     make(chan struct{}),
	}
}

// fencingToken derives a per-(instance,hash) token via HKDF-SHA256, used
// only to label which instance is driving a given hash in logs and metrics;
// actual mutual exclusion is the in-process mutex in lockFor.
func (o *Operator) fencingToken(hash bridgecore.CanonicalHash) string {
	r := hkdf.New(sha256.New, o.instanceID[:], hash[:], []byte("operator-fencing-token"))
	out := make([]byte, 8)
	if _, err := io.ReadFull(r, out); err != nil {
		return o.instanceID.String()
	}
	return fmt.Sprintf("%x", out)
}

func (o *Operator) lockFor(hash bridgecore.CanonicalHash) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	l, ok := o.locks[hash]
	if !ok {
		l = &sync.Mutex{}
		o.locks[hash] = l
	}
	return l
}

// Start runs the approval loop, the execution loop and the reconciliation
// loop until ctx is cancelled or Stop is called.
func (o *Operator) Start(ctx context.Context) error {
	o.logger.Info("starting operator", zap.String("dest_chain", o.cfg.DestChainName))

	o.wg.Add(3)
	go o.loop(ctx, o.cfg.PollInterval, o.runApprovals, "approve")
	go o.loop(ctx, o.cfg.PollInterval, o.runExecutions, "execute")
	go o.loop(ctx, o.cfg.ReconcileInterval, o.reconcile, "reconcile")

	select {
	case <-ctx.Done():
	case <-o.stopCh:
	}
	o.wg.Wait()
	return ctx.Err()
}

// Stop signals all loops to exit and waits for them to finish.
func (o *Operator) Stop() {
	close(o.stopCh)
	o.wg.Wait()
}

func (o *Operator) loop(ctx context.Context, interval time.Duration, fn func(context.Context) error, name string) {
	defer o.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				o.logger.Error("operator loop failed", zap.String("loop", name), zap.Error(err))
				metrics.ErrorsTotal.WithLabelValues("operator", name).Inc()
			}
		}
	}
}

func (o *Operator) runApprovals(ctx context.Context) error {
	hashes, err := o.store.PendingApproval(ctx, o.cfg.DestChainName, o.cfg.BatchLimit)
	if err != nil {
		return fmt.Errorf("operator: list pending approvals: %w", err)
	}
	metrics.PendingApprovals.WithLabelValues(o.cfg.DestChainName).Set(float64(len(hashes)))

	for _, hexHash := range hashes {
		hash, err := parseHash(hexHash)
		if err != nil {
			o.logger.Warn("skipping malformed hash", zap.String("hash", hexHash), zap.Error(err))
			continue
		}
		o.approveOne(ctx, hash)
	}
	return nil
}

// ensureSubmitted files the destination-side withdrawal for hash if none
// exists yet, loading the raw transfer fields from the deposit the observer
// recorded on the source chain. A pre-existing pending record (filed by
// this or another operator instance) is left untouched.
func (o *Operator) ensureSubmitted(ctx context.Context, hash bridgecore.CanonicalHash) error {
	if _, ok, err := o.adapter.PendingWithdrawal(ctx, hash); err == nil && ok {
		return nil
	}

	dep, err := o.store.DepositByHash(ctx, fmt.Sprintf("%x", hash))
	if err != nil {
		return fmt.Errorf("load deposit: %w", err)
	}
	req, err := depositToSubmitRequest(dep)
	if err != nil {
		return fmt.Errorf("decode deposit %s: %w", dep.Hash, err)
	}

	if _, err := o.adapter.WithdrawSubmit(ctx, req); err != nil {
		if apperr.Is(err, apperr.CategoryReplayOrDuplicate) {
			return nil // another instance submitted it between our check and this call
		}
		return fmt.Errorf("submit withdrawal: %w", err)
	}
	metrics.SubmissionsTotal.WithLabelValues(o.cfg.DestChainName).Inc()
	return nil
}

// depositToSubmitRequest decodes a persisted store.Deposit's hex-encoded
// fields back into the raw values chainadapter.WithdrawSubmitRequest needs.
func depositToSubmitRequest(d *store.Deposit) (chainadapter.WithdrawSubmitRequest, error) {
	srcChain, err := decodeChainTag(d.SrcChain)
	if err != nil {
		return chainadapter.WithdrawSubmitRequest{}, fmt.Errorf("src chain: %w", err)
	}
	srcAccount, err := decodeAccount(d.SrcAccount)
	if err != nil {
		return chainadapter.WithdrawSubmitRequest{}, fmt.Errorf("src account: %w", err)
	}
	destAccount, err := decodeAccount(d.DestAccount)
	if err != nil {
		return chainadapter.WithdrawSubmitRequest{}, fmt.Errorf("dest account: %w", err)
	}
	token, err := decodeTokenRef(d.Token)
	if err != nil {
		return chainadapter.WithdrawSubmitRequest{}, fmt.Errorf("token: %w", err)
	}
	amount, ok := new(big.Int).SetString(d.NetAmount, 10)
	if !ok {
		return chainadapter.WithdrawSubmitRequest{}, fmt.Errorf("invalid net amount %q", d.NetAmount)
	}
	return chainadapter.WithdrawSubmitRequest{
		SrcChain:    srcChain,
		SrcAccount:  srcAccount,
		DestAccount: destAccount,
		Token:       token,
		Amount:      amount,
		Nonce:       uint64(d.Nonce),
	}, nil
}

func decodeChainTag(s string) (bridgecore.ChainTag, error) {
	var t bridgecore.ChainTag
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(t) {
		return t, fmt.Errorf("invalid chain tag %q", s)
	}
	copy(t[:], b)
	return t, nil
}

func decodeAccount(s string) (bridgecore.Account, error) {
	var a bridgecore.Account
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(a) {
		return a, fmt.Errorf("invalid account %q", s)
	}
	copy(a[:], b)
	return a, nil
}

func decodeTokenRef(s string) (bridgecore.TokenRef, error) {
	var r bridgecore.TokenRef
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(r) {
		return r, fmt.Errorf("invalid token ref %q", s)
	}
	copy(r[:], b)
	return r, nil
}

func (o *Operator) approveOne(ctx context.Context, hash bridgecore.CanonicalHash) {
	lock := o.lockFor(hash)
	if !lock.TryLock() {
		return // another goroutine in this process already owns this hash
	}
	defer lock.Unlock()

	if err := o.ensureSubmitted(ctx, hash); err != nil {
		o.logger.Warn("submit failed", zap.String("hash", fmt.Sprintf("%x", hash)), zap.Error(err))
		metrics.ErrorsTotal.WithLabelValues("operator", "submit").Inc()
		return
	}

	token := o.fencingToken(hash)
	if err := o.adapter.Approve(ctx, hash); err != nil {
		if apperr.Is(err, apperr.CategoryRpcTransient) {
			metrics.RetriesTotal.WithLabelValues("operator", "approve").Inc()
		}
		o.logger.Warn("approval failed", zap.String("hash", fmt.Sprintf("%x", hash)), zap.String("token", token), zap.Error(err))
		metrics.ApprovalsTotal.WithLabelValues(o.cfg.DestChainName, "failed").Inc()
		return
	}
	if err := o.store.RecordApproval(ctx, &store.Approval{
		Hash: fmt.Sprintf("%x", hash), DestChain: o.cfg.DestChainName, Approver: token,
	}); err != nil {
		o.logger.Error("failed to persist approval", zap.String("hash", fmt.Sprintf("%x", hash)), zap.Error(err))
	}
	metrics.ApprovalsTotal.WithLabelValues(o.cfg.DestChainName, "completed").Inc()
}

func (o *Operator) runExecutions(ctx context.Context) error {
	hashes, err := o.store.PendingExecution(ctx, o.cfg.DestChainName, o.cfg.BatchLimit)
	if err != nil {
		return fmt.Errorf("operator: list pending executions: %w", err)
	}
	metrics.PendingExecutions.WithLabelValues(o.cfg.DestChainName).Set(float64(len(hashes)))

	for _, hexHash := range hashes {
		hash, err := parseHash(hexHash)
		if err != nil {
			o.logger.Warn("skipping malformed hash", zap.String("hash", hexHash), zap.Error(err))
			continue
		}
		o.executeOne(ctx, hash)
	}
	return nil
}

func (o *Operator) executeOne(ctx context.Context, hash bridgecore.CanonicalHash) {
	lock := o.lockFor(hash)
	if !lock.TryLock() {
		return
	}
	defer lock.Unlock()

	pw, ok, err := o.adapter.PendingWithdrawal(ctx, hash)
	if err != nil || !ok {
		return
	}

	// The adapter doesn't expose a pending withdrawal's token type directly,
	// so try unlock first and fall back to mint on a variant mismatch
	// (Bridge.executePreconditions rejects the wrong variant as InvalidInput).
	variant := "unlock"
	execErr := o.adapter.ExecuteUnlock(ctx, hash)
	if execErr != nil && apperr.Is(execErr, apperr.CategoryInvalidInput) {
		variant = "mint"
		execErr = o.adapter.ExecuteMint(ctx, hash)
	}
	if execErr != nil {
		o.logger.Warn("execution failed", zap.String("hash", fmt.Sprintf("%x", hash)), zap.Error(execErr))
		metrics.ExecutionsTotal.WithLabelValues(o.cfg.DestChainName, variant, "failed").Inc()
		return
	}

	if err := o.store.RecordExecution(ctx, &store.Execution{
		Hash: fmt.Sprintf("%x", hash), DestChain: o.cfg.DestChainName, Variant: variant, Payout: pw.Amount.String(),
	}); err != nil {
		o.logger.Error("failed to persist execution", zap.String("hash", fmt.Sprintf("%x", hash)), zap.Error(err))
	}
	metrics.ExecutionsTotal.WithLabelValues(o.cfg.DestChainName, variant, "completed").Inc()
}

// reconcile sweeps pending rows and surfaces stuck transfers, replacing the
// teacher's bare TODOs in Engine.runReconciliation with an actual gauge and
// structured log per SPEC_FULL.md's supplemented reconciliation feature.
func (o *Operator) reconcile(ctx context.Context) error {
	approvals, err := o.store.PendingApproval(ctx, o.cfg.DestChainName, 1000)
	if err != nil {
		return fmt.Errorf("operator: reconcile list approvals: %w", err)
	}
	executions, err := o.store.PendingExecution(ctx, o.cfg.DestChainName, 1000)
	if err != nil {
		return fmt.Errorf("operator: reconcile list executions: %w", err)
	}

	stuck := 0
	for _, hexHash := range append(append([]string{}, approvals...), executions...) {
		hash, err := parseHash(hexHash)
		if err != nil {
			continue
		}
		pw, ok, err := o.adapter.PendingWithdrawal(ctx, hash)
		if err != nil || !ok {
			continue
		}
		if time.Since(pw.SubmittedAt) > o.cfg.StuckAfter && !pw.Executed && !pw.Cancelled {
			stuck++
			o.logger.Warn("stuck transfer", zap.String("hash", hexHash),
				zap.String("dest_chain", o.cfg.DestChainName),
				zap.Duration("age", time.Since(pw.SubmittedAt)))
		}
	}
	metrics.StuckTransfers.WithLabelValues(o.cfg.DestChainName).Set(float64(stuck))

	o.logger.Info("reconciliation summary",
		zap.Int("pending_approvals", len(approvals)),
		zap.Int("pending_executions", len(executions)),
		zap.Int("stuck", stuck))
	return nil
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
