package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/chainsafe/watchtower-bridge/pkg/store/dao"
)

type pgStore struct {
	db *bun.DB
}

// NewStore returns the bun-backed Store implementation over an already
// connected db (see pkg/pgutil.ConnectDB in the teacher for the dial
// pattern this assumes).
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Close() error {
	return s.db.Close()
}

func toDepositDao(d *Deposit) *dao.DepositDao {
	return &dao.DepositDao{
		SrcChain:    d.SrcChain,
		DestChain:   d.DestChain,
		SrcAccount:  d.SrcAccount,
		DestAccount: d.DestAccount,
		Token:       d.Token,
		NetAmount:   d.NetAmount,
		Fee:         d.Fee,
		Nonce:       d.Nonce,
		Hash:        d.Hash,
	}
}

func toDeposit(d *dao.DepositDao) *Deposit {
	return &Deposit{
		SrcChain:    d.SrcChain,
		DestChain:   d.DestChain,
		SrcAccount:  d.SrcAccount,
		DestAccount: d.DestAccount,
		Token:       d.Token,
		NetAmount:   d.NetAmount,
		Fee:         d.Fee,
		Nonce:       d.Nonce,
		Hash:        d.Hash,
		ObservedAt:  d.ObservedAt,
	}
}

func (s *pgStore) RecordDeposit(ctx context.Context, d *Deposit) error {
	_, err := s.db.NewInsert().
		Model(toDepositDao(d)).
		On("CONFLICT (hash) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record deposit: %w", err)
	}
	return nil
}

func (s *pgStore) DepositByHash(ctx context.Context, hash string) (*Deposit, error) {
	row := new(dao.DepositDao)
	err := s.db.NewSelect().Model(row).Where("hash = ?", hash).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return toDeposit(row), nil
}

func (s *pgStore) HasDeposit(ctx context.Context, hash string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*dao.DepositDao)(nil)).
		Where("hash = ?", hash).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check deposit existence: %w", err)
	}
	return exists, nil
}

func (s *pgStore) NonceConflict(ctx context.Context, srcChain string, nonce int64, exceptHash string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*dao.DepositDao)(nil)).
		Where("src_chain = ? AND nonce = ? AND hash != ?", srcChain, nonce, exceptHash).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check nonce conflict: %w", err)
	}
	return exists, nil
}

func (s *pgStore) RecordApproval(ctx context.Context, a *Approval) error {
	row := &dao.ApprovalDao{Hash: a.Hash, DestChain: a.DestChain, Approver: a.Approver}
	_, err := s.db.NewInsert().Model(row).On("CONFLICT (hash) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record approval: %w", err)
	}
	return nil
}

func (s *pgStore) ApprovalByHash(ctx context.Context, hash string) (*Approval, error) {
	row := new(dao.ApprovalDao)
	err := s.db.NewSelect().Model(row).Where("hash = ?", hash).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return &Approval{Hash: row.Hash, DestChain: row.DestChain, Approver: row.Approver, ApprovedAt: row.ApprovedAt}, nil
}

func (s *pgStore) RecordExecution(ctx context.Context, e *Execution) error {
	row := &dao.ExecutionDao{Hash: e.Hash, DestChain: e.DestChain, Variant: e.Variant, Payout: e.Payout}
	_, err := s.db.NewInsert().Model(row).On("CONFLICT (hash) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

func (s *pgStore) HasExecution(ctx context.Context, hash string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*dao.ExecutionDao)(nil)).
		Where("hash = ?", hash).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check execution existence: %w", err)
	}
	return exists, nil
}

func (s *pgStore) RecordCancel(ctx context.Context, c *Cancel) error {
	row := &dao.CancelDao{Hash: c.Hash, DestChain: c.DestChain, Canceler: c.Canceler}
	if c.Reason != "" {
		row.Reason = &c.Reason
	}
	_, err := s.db.NewInsert().Model(row).On("CONFLICT (hash) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record cancel: %w", err)
	}
	return nil
}

func (s *pgStore) HasCancel(ctx context.Context, hash string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*dao.CancelDao)(nil)).
		Where("hash = ?", hash).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check cancel existence: %w", err)
	}
	return exists, nil
}

func (s *pgStore) GetCursor(ctx context.Context, chain, service string) (*Cursor, error) {
	row := new(dao.CursorDao)
	err := s.db.NewSelect().
		Model(row).
		Where("chain = ? AND service = ?", chain, service).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cursor: %w", err)
	}
	c := &Cursor{Chain: row.Chain, Service: row.Service, Cursor: row.Cursor, UpdatedAt: row.UpdatedAt}
	if row.CursorHash != nil {
		c.CursorHash = *row.CursorHash
	}
	return c, nil
}

func (s *pgStore) SetCursor(ctx context.Context, chain, service string, cursor int64, cursorHash string) error {
	row := &dao.CursorDao{Chain: chain, Service: service, Cursor: cursor}
	if cursorHash != "" {
		row.CursorHash = &cursorHash
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (chain, service) DO UPDATE").
		Set("cursor = EXCLUDED.cursor").
		Set("cursor_hash = EXCLUDED.cursor_hash").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set cursor: %w", err)
	}
	return nil
}

func (s *pgStore) PendingApproval(ctx context.Context, destChain string, limit int) ([]string, error) {
	var hashes []string
	err := s.db.NewSelect().
		Model((*dao.DepositDao)(nil)).
		Column("hash").
		Where("dest_chain = ?", destChain).
		Where("hash NOT IN (SELECT hash FROM approvals)").
		Limit(limit).
		Scan(ctx, &hashes)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return hashes, nil
}

func (s *pgStore) PendingExecution(ctx context.Context, destChain string, limit int) ([]string, error) {
	var hashes []string
	err := s.db.NewSelect().
		Model((*dao.ApprovalDao)(nil)).
		Column("hash").
		Where("dest_chain = ?", destChain).
		Where("hash NOT IN (SELECT hash FROM executions)").
		Where("hash NOT IN (SELECT hash FROM cancels)").
		Limit(limit).
		Scan(ctx, &hashes)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending executions: %w", err)
	}
	return hashes, nil
}
