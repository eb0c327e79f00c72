package migrations

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/chainsafe/watchtower-bridge/pkg/pgutil/migrations"
	"github.com/chainsafe/watchtower-bridge/pkg/store/dao"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating approvals table...")
		if err := mghelper.CreateSchema(ctx, db, &dao.ApprovalDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &dao.ApprovalDao{}, "dest_chain")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping approvals table...")
		return mghelper.DropTables(ctx, db, &dao.ApprovalDao{})
	})
}
