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
		log.Println("creating cursors table...")
		return mghelper.CreateSchema(ctx, db, &dao.CursorDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping cursors table...")
		return mghelper.DropTables(ctx, db, &dao.CursorDao{})
	})
}
