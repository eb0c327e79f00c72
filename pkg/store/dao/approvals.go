package dao

import "time"

// ApprovalDao is a data access object that maps directly to the 'approvals'
// table in PostgreSQL, recording every Bridge.Approve call the operator
// service has successfully issued, keyed by canonical hash.
type ApprovalDao struct {
	tableName  struct{}  `bun:"table:approvals"` // nolint
	Hash       string    `json:"hash" bun:",pk,type:varchar(66)"`
	DestChain  string    `json:"dest_chain" bun:",notnull,type:varchar(16)"`
	Approver   string    `json:"approver" bun:",notnull,type:varchar(66)"`
	ApprovedAt time.Time `json:"approved_at" bun:",notnull,default:current_timestamp"`
}
