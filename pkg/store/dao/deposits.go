package dao

import "time"

// DepositDao is a data access object that maps directly to the 'deposits' table in PostgreSQL.
// One row per Deposit emitted by a bridgecore.Bridge instance on the source side.
type DepositDao struct {
	tableName   struct{}  `bun:"table:deposits"` // nolint
	SrcChain    string    `json:"src_chain" bun:",pk,type:varchar(16)"`
	Nonce       int64     `json:"nonce" bun:",pk"`
	DestChain   string    `json:"dest_chain" bun:",notnull,type:varchar(16)"`
	SrcAccount  string    `json:"src_account" bun:",notnull,type:varchar(66)"`
	DestAccount string    `json:"dest_account" bun:",notnull,type:varchar(66)"`
	Token       string    `json:"token" bun:",notnull,type:varchar(66)"`
	NetAmount   string    `json:"net_amount" bun:",notnull,type:numeric(78,0)"`
	Fee         string    `json:"fee" bun:",notnull,type:numeric(78,0)"`
	Hash        string    `json:"hash" bun:",unique,notnull,type:varchar(66)"`
	ObservedAt  time.Time `json:"observed_at" bun:",notnull,default:current_timestamp"`
}
