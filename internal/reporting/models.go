package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"cdr-reconciler/internal/reconcile"
)

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// RunSummary describes one finalized reconciliation run.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	Client    string    `json:"client"`
	Carrier   string    `json:"carrier"`
	CreatedAt time.Time `json:"created_at"`

	TotalRecords int            `json:"total_records"`
	ByOrigin     map[string]int `json:"by_origin"`
	ByNumberType map[string]int `json:"by_number_type"`

	// ByRule counts which classifier rule decided each record's number type.
	ByRule map[string]int `json:"by_rule"`

	RoundUpMinutes int             `json:"round_up_minutes"`
	BilledAmount   decimal.Decimal `json:"billed_amount"`

	Phases []reconcile.Stats `json:"phases"`
}

// ClientSummaryRequest aggregates the runs of one client.
// Client isolation: Client is required.

type ClientSummaryRequest struct {
	Client string    `json:"client"`
	Range  TimeRange `json:"range"`
}

type ClientSummary struct {
	Client string `json:"client"`

	Runs           int             `json:"runs"`
	TotalRecords   int             `json:"total_records"`
	RoundUpMinutes int             `json:"round_up_minutes"`
	BilledAmount   decimal.Decimal `json:"billed_amount"`
	ByNumberType   map[string]int  `json:"by_number_type"`

	AverageRecordsPerRun int `json:"average_records_per_run"`
}
