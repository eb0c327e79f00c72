package observer

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/watchtower-bridge/pkg/bridgecore"
	"github.com/chainsafe/watchtower-bridge/pkg/chainadapter"
	"github.com/chainsafe/watchtower-bridge/pkg/store"
)

// fakeAdapter serves a scripted, in-memory block/deposit history so poll()
// can be exercised without a real chain client.
type fakeAdapter struct {
	mu               sync.Mutex
	cfg              chainadapter.Config
	hashes           map[int64]string
	deposits         []chainadapter.ObservedDeposit
	latestDeposit    int64
	lastQueriedFrom  int64
	depositsSinceHit int
}

func (f *fakeAdapter) ChainTag() bridgecore.ChainTag { return bridgecore.ChainTag{1} }
func (f *fakeAdapter) Account() bridgecore.Account   { return bridgecore.Account{1} }
func (f *fakeAdapter) Config() chainadapter.Config   { return f.cfg }

func (f *fakeAdapter) DepositsSince(_ context.Context, cursor int64, limit int) ([]chainadapter.ObservedDeposit, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQueriedFrom = cursor
	f.depositsSinceHit++
	var out []chainadapter.ObservedDeposit
	newCursor := cursor
	for _, d := range f.deposits {
		if d.BlockHeight <= cursor {
			continue
		}
		out = append(out, d)
		if d.BlockHeight > newCursor {
			newCursor = d.BlockHeight
		}
		if len(out) >= limit {
			break
		}
	}
	if newCursor == cursor && f.latestDeposit > cursor {
		newCursor = f.latestDeposit
	}
	return out, newCursor, nil
}

func (f *fakeAdapter) BlockHashAt(_ context.Context, height int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hashes[height], nil
}

func (f *fakeAdapter) LatestFinalizedHeight(context.Context) (int64, error) { panic("not used") }
func (f *fakeAdapter) WithdrawSubmit(context.Context, chainadapter.WithdrawSubmitRequest) (bridgecore.CanonicalHash, error) {
	panic("not used")
}
func (f *fakeAdapter) Approve(context.Context, bridgecore.CanonicalHash) error { panic("not used") }
func (f *fakeAdapter) Cancel(context.Context, bridgecore.CanonicalHash) error  { panic("not used") }
func (f *fakeAdapter) ExecuteUnlock(context.Context, bridgecore.CanonicalHash) error {
	panic("not used")
}
func (f *fakeAdapter) ExecuteMint(context.Context, bridgecore.CanonicalHash) error {
	panic("not used")
}
func (f *fakeAdapter) PendingWithdrawal(context.Context, bridgecore.CanonicalHash) (bridgecore.PendingWithdraw, bool, error) {
	panic("not used")
}

type memStore struct {
	mu       sync.Mutex
	deposits map[string]*store.Deposit
	cursors  map[string]*store.Cursor
}

func newMemStore() *memStore {
	return &memStore{deposits: make(map[string]*store.Deposit), cursors: make(map[string]*store.Cursor)}
}

func (m *memStore) RecordDeposit(_ context.Context, d *store.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deposits[d.Hash] = d
	return nil
}
func (m *memStore) DepositByHash(_ context.Context, hash string) (*store.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}
func (m *memStore) HasDeposit(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.deposits[hash]
	return ok, nil
}
func (m *memStore) NonceConflict(_ context.Context, srcChain string, nonce int64, exceptHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deposits {
		if d.SrcChain == srcChain && d.Nonce == nonce && d.Hash != exceptHash {
			return true, nil
		}
	}
	return false, nil
}
func (m *memStore) RecordApproval(context.Context, *store.Approval) error { return nil }
func (m *memStore) ApprovalByHash(context.Context, string) (*store.Approval, error) {
	return nil, store.ErrNotFound
}
func (m *memStore) RecordExecution(context.Context, *store.Execution) error { return nil }
func (m *memStore) HasExecution(context.Context, string) (bool, error)      { return false, nil }
func (m *memStore) RecordCancel(context.Context, *store.Cancel) error       { return nil }
func (m *memStore) HasCancel(context.Context, string) (bool, error)         { return false, nil }
func (m *memStore) GetCursor(_ context.Context, chain, service string) (*store.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[chain+"/"+service]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}
func (m *memStore) SetCursor(_ context.Context, chain, service string, cursor int64, cursorHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[chain+"/"+service] = &store.Cursor{Chain: chain, Service: service, Cursor: cursor, CursorHash: cursorHash}
	return nil
}
func (m *memStore) PendingApproval(context.Context, string, int) ([]string, error)  { return nil, nil }
func (m *memStore) PendingExecution(context.Context, string, int) ([]string, error) { return nil, nil }
func (m *memStore) Close() error                                                    { return nil }

func testDeposit(height int64, nonce uint64) chainadapter.ObservedDeposit {
	var hash bridgecore.CanonicalHash
	hash[0] = byte(height)
	return chainadapter.ObservedDeposit{
		Deposit: bridgecore.Deposit{
			DestChain: bridgecore.ChainTag{2},
			Token:     bridgecore.TokenRef{1},
			NetAmount: big.NewInt(1000),
			Fee:       big.NewInt(1),
			Nonce:     nonce,
		},
		Hash:        hash,
		BlockHeight: height,
	}
}

func TestObserver_Poll_RecordsNewDepositsAndAdvancesCursor(t *testing.T) {
	adapter := &fakeAdapter{
		hashes:   map[int64]string{5: "hash-5"},
		deposits: []chainadapter.ObservedDeposit{testDeposit(5, 1)},
	}
	st := newMemStore()
	o := New(Config{ServiceName: "operator-observer", PollInterval: time.Millisecond, BatchLimit: 10}, "evm", adapter, st, zap.NewNop())

	if err := o.poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	if len(st.deposits) != 1 {
		t.Fatalf("expected 1 recorded deposit, got %d", len(st.deposits))
	}
	cursor, err := st.GetCursor(context.Background(), "evm", "operator-observer")
	if err != nil {
		t.Fatalf("GetCursor: %v", err)
	}
	if cursor.Cursor != 5 {
		t.Fatalf("expected cursor advanced to 5, got %d", cursor.Cursor)
	}
	if cursor.CursorHash != "hash-5" {
		t.Fatalf("expected cursor hash %q, got %q", "hash-5", cursor.CursorHash)
	}
}

func TestObserver_Poll_DetectsReorgAndRewinds(t *testing.T) {
	adapter := &fakeAdapter{
		cfg:      chainadapter.Config{FinalityDepth: 2},
		hashes:   map[int64]string{10: "hash-10-new", 8: "hash-8"},
		deposits: []chainadapter.ObservedDeposit{testDeposit(9, 1)},
	}
	st := newMemStore()
	if err := st.SetCursor(context.Background(), "evm", "operator-observer", 10, "hash-10-old"); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}

	o := New(Config{ServiceName: "operator-observer", PollInterval: time.Millisecond, BatchLimit: 10}, "evm", adapter, st, zap.NewNop())
	if err := o.poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	if adapter.lastQueriedFrom != 8 {
		t.Fatalf("expected reorg to rewind the query height to 10-2=8, got %d", adapter.lastQueriedFrom)
	}
	if len(st.deposits) != 1 {
		t.Fatalf("expected the deposit above the rewound height to be re-recorded, got %d", len(st.deposits))
	}
}

func TestObserver_RewindTarget_NeverGoesNegative(t *testing.T) {
	adapter := &fakeAdapter{cfg: chainadapter.Config{FinalityDepth: 100}}
	o := New(Config{}, "evm", adapter, newMemStore(), zap.NewNop())
	if got := o.rewindTarget(10); got != 0 {
		t.Fatalf("expected rewindTarget to clamp at 0, got %d", got)
	}
}
