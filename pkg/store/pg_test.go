package store_test

import (
	"context"
	"testing"

	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/watchtower-bridge/pkg/pgutil"
	"github.com/chainsafe/watchtower-bridge/pkg/store"
	"github.com/chainsafe/watchtower-bridge/pkg/store/migrations"
)

func TestStoreMigrations_Apply(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if group.IsZero() {
		t.Fatal("expected migrations to run, but none were applied")
	}

	for _, table := range []string{"deposits", "approvals", "executions", "cancels", "cursors", "bun_migrations"} {
		pgutil.AssertTableExists(t, db, table)
	}
}

func TestStore_DepositApprovalExecutionLifecycle(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	s := store.NewStore(db)
	defer s.Close()

	dep := &store.Deposit{
		SrcChain: "evm", DestChain: "cosmos", SrcAccount: "0xaa", DestAccount: "cosmosbb",
		Token: "0xtoken", NetAmount: "997000", Fee: "3000", Nonce: 1, Hash: "0xhash1",
	}
	if err := s.RecordDeposit(ctx, dep); err != nil {
		t.Fatalf("RecordDeposit failed: %v", err)
	}
	// Recording the same hash twice must not error (idempotent observer replay).
	if err := s.RecordDeposit(ctx, dep); err != nil {
		t.Fatalf("RecordDeposit should be idempotent, got: %v", err)
	}

	has, err := s.HasDeposit(ctx, dep.Hash)
	if err != nil || !has {
		t.Fatalf("expected HasDeposit true, got has=%v err=%v", has, err)
	}

	pending, err := s.PendingApproval(ctx, "cosmos", 10)
	if err != nil {
		t.Fatalf("PendingApproval failed: %v", err)
	}
	if len(pending) != 1 || pending[0] != dep.Hash {
		t.Fatalf("expected one pending approval for %s, got %v", dep.Hash, pending)
	}

	if err := s.RecordApproval(ctx, &store.Approval{Hash: dep.Hash, DestChain: "cosmos", Approver: "0xop"}); err != nil {
		t.Fatalf("RecordApproval failed: %v", err)
	}

	pending, err = s.PendingApproval(ctx, "cosmos", 10)
	if err != nil {
		t.Fatalf("PendingApproval after approve failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending approvals after approve, got %v", pending)
	}

	pendingExec, err := s.PendingExecution(ctx, "cosmos", 10)
	if err != nil {
		t.Fatalf("PendingExecution failed: %v", err)
	}
	if len(pendingExec) != 1 || pendingExec[0] != dep.Hash {
		t.Fatalf("expected one pending execution for %s, got %v", dep.Hash, pendingExec)
	}

	if err := s.RecordExecution(ctx, &store.Execution{Hash: dep.Hash, DestChain: "cosmos", Variant: "mint", Payout: "997000"}); err != nil {
		t.Fatalf("RecordExecution failed: %v", err)
	}

	pendingExec, err = s.PendingExecution(ctx, "cosmos", 10)
	if err != nil {
		t.Fatalf("PendingExecution after execute failed: %v", err)
	}
	if len(pendingExec) != 0 {
		t.Fatalf("expected no pending executions after execute, got %v", pendingExec)
	}
}

func TestStore_CursorRoundTrip(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	s := store.NewStore(db)
	defer s.Close()

	if _, err := s.GetCursor(ctx, "evm", "observer"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound before any cursor set, got %v", err)
	}
	if err := s.SetCursor(ctx, "evm", "observer", 1000, "0xblockhash"); err != nil {
		t.Fatalf("SetCursor failed: %v", err)
	}
	c, err := s.GetCursor(ctx, "evm", "observer")
	if err != nil {
		t.Fatalf("GetCursor failed: %v", err)
	}
	if c.Cursor != 1000 || c.CursorHash != "0xblockhash" {
		t.Fatalf("unexpected cursor: %+v", c)
	}
	if err := s.SetCursor(ctx, "evm", "observer", 1001, "0xblockhash2"); err != nil {
		t.Fatalf("second SetCursor failed: %v", err)
	}
	c, err = s.GetCursor(ctx, "evm", "observer")
	if err != nil {
		t.Fatalf("GetCursor after update failed: %v", err)
	}
	if c.Cursor != 1001 {
		t.Fatalf("expected cursor updated to 1001, got %d", c.Cursor)
	}
}
