package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DepositsObserved counts deposits the observer has recorded, by chain.
	DepositsObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchtower_deposits_observed_total",
			Help: "Total number of deposits observed by chain",
		},
		[]string{"chain"},
	)

	// SubmissionsTotal counts destination-side withdrawal submissions the
	// operator has filed on behalf of an observed source-chain deposit.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchtower_submissions_total",
			Help: "Total number of withdrawal submissions filed by the operator, by destination chain",
		},
		[]string{"dest_chain"},
	)

	// ApprovalsTotal counts approvals the operator has driven to completion.
	ApprovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchtower_approvals_total",
			Help: "Total number of withdrawal approvals by destination chain and outcome",
		},
		[]string{"dest_chain", "outcome"},
	)

	// ExecutionsTotal counts executions (unlock or mint) the operator has driven to completion.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchtower_executions_total",
			Help: "Total number of withdrawal executions by destination chain, variant and outcome",
		},
		[]string{"dest_chain", "variant", "outcome"},
	)

	// CancelsTotal counts cancels the canceler has driven to completion.
	CancelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchtower_cancels_total",
			Help: "Total number of withdrawal cancels by destination chain and outcome",
		},
		[]string{"dest_chain", "outcome"},
	)

	// BlocksScanned counts blocks the observer has scanned, by chain.
	BlocksScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchtower_blocks_scanned_total",
			Help: "Total number of blocks scanned by chain",
		},
		[]string{"chain"},
	)

	// ReorgsDetected counts reorg rewinds the observer has performed.
	ReorgsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchtower_reorgs_detected_total",
			Help: "Total number of chain reorgs detected by the observer",
		},
		[]string{"chain"},
	)

	// PendingApprovals tracks the size of the operator's approval backlog.
	PendingApprovals = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "watchtower_pending_approvals",
			Help: "Number of deposits awaiting approval, by destination chain",
		},
		[]string{"dest_chain"},
	)

	// PendingExecutions tracks the size of the operator's execution backlog.
	PendingExecutions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "watchtower_pending_executions",
			Help: "Number of withdrawals awaiting execution, by destination chain",
		},
		[]string{"dest_chain"},
	)

	// StuckTransfers tracks transfers the reconciliation loop has flagged as stuck.
	StuckTransfers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "watchtower_stuck_transfers",
			Help: "Number of transfers stuck past their expected completion window, by destination chain",
		},
		[]string{"dest_chain"},
	)

	// RetriesTotal counts retried RPC calls, by component and category.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchtower_retries_total",
			Help: "Total number of retried operations by component and error category",
		},
		[]string{"component", "category"},
	)

	// ErrorsTotal counts terminal errors by component and category.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchtower_errors_total",
			Help: "Total number of errors by component and category",
		},
		[]string{"component", "category"},
	)

	// LastScannedHeight tracks the observer's resume position, by chain.
	LastScannedHeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "watchtower_last_scanned_height",
			Help: "Last scanned block/ledger height by chain",
		},
		[]string{"chain"},
	)
)
