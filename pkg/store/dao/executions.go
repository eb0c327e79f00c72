package dao

import "time"

// ExecutionDao is a data access object that maps directly to the
// 'executions' table in PostgreSQL, recording every successful
// ExecuteUnlock/ExecuteMint the operator service has driven to completion.
type ExecutionDao struct {
	tableName struct{}  `bun:"table:executions"` // nolint
	Hash      string    `json:"hash" bun:",pk,type:varchar(66)"`
	DestChain string    `json:"dest_chain" bun:",notnull,type:varchar(16)"`
	Variant   string    `json:"variant" bun:",notnull,type:varchar(16)"`
	Payout    string    `json:"payout" bun:",notnull,type:numeric(78,0)"`
	ExecutedAt time.Time `json:"executed_at" bun:",notnull,default:current_timestamp"`
}

// CancelDao is a data access object that maps directly to the 'cancels'
// table in PostgreSQL, recording every veto the canceler service issues.
type CancelDao struct {
	tableName struct{}  `bun:"table:cancels"` // nolint
	Hash      string    `json:"hash" bun:",pk,type:varchar(66)"`
	DestChain string    `json:"dest_chain" bun:",notnull,type:varchar(16)"`
	Canceler  string    `json:"canceler" bun:",notnull,type:varchar(66)"`
	Reason    *string   `json:"reason,omitempty" bun:",type:varchar(500)"`
	CancelledAt time.Time `json:"cancelled_at" bun:",notnull,default:current_timestamp"`
}
