// Package migrations holds the bun/migrate migrations for the off-chain
// bookkeeping database (deposits, approvals, executions, cancels, cursors).
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry every migration file in this package appends
// to via MustRegister in its init(). cmd/watchtower-migrate runs it
// through migrate.NewMigrator.
var Migrations = migrate.NewMigrations()
