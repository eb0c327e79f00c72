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
		log.Println("creating executions and cancels tables...")
		if err := mghelper.CreateSchema(ctx, db, &dao.ExecutionDao{}, &dao.CancelDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &dao.ExecutionDao{}, "dest_chain"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &dao.CancelDao{}, "dest_chain")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping executions and cancels tables...")
		return mghelper.DropTables(ctx, db, &dao.ExecutionDao{}, &dao.CancelDao{})
	})
}
