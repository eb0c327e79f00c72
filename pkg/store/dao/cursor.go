package dao

import "time"

// CursorDao is a data access object that maps directly to the 'cursors'
// table in PostgreSQL: one row per (chain, service) pair recording how far
// the observer has scanned, so a restart resumes without
// re-processing or skipping events (mirrors the teacher's chain_state
// table, generalized from "one chain" to "one chain per watching service").
type CursorDao struct {
	tableName   struct{}  `bun:"table:cursors"` // nolint
	Chain       string    `json:"chain" bun:",pk,type:varchar(16)"`
	Service     string    `json:"service" bun:",pk,type:varchar(32)"`
	Cursor      int64     `json:"cursor" bun:",notnull"`
	CursorHash  *string   `json:"cursor_hash,omitempty" bun:",type:varchar(66)"`
	UpdatedAt   time.Time `json:"updated_at" bun:",notnull,nullzero,default:current_timestamp"`
}
