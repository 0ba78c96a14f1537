package models

import "time"

// JobType identifies the kind of work carried by a queue message
type JobType string

// Job type constants
const (
	JobEvaluateAlerts        JobType = "EVALUATE_ALERTS"
	JobSnapshotDailyBalances JobType = "SNAPSHOT_DAILY_BALANCES"
)

// Job is the envelope published to the jobs topic
type Job struct {
	ID                    string                 `json:"id" validate:"required"`
	Type                  JobType                `json:"type" validate:"required,oneof=EVALUATE_ALERTS SNAPSHOT_DAILY_BALANCES"`
	EnqueuedAt            time.Time              `json:"enqueued_at"`
	EvaluateAlerts        *EvaluateAlertsJob     `json:"evaluate_alerts,omitempty" validate:"required_if=Type EVALUATE_ALERTS"`
	SnapshotDailyBalances *SnapshotDailyBalances `json:"snapshot_daily_balances,omitempty"`
}

// EvaluateAlertsJob is one batch of alerts sharing an asset class
type EvaluateAlertsJob struct {
	Class  AssetClass `json:"class" validate:"required,oneof=stock crypto"`
	Alerts []Alert    `json:"alerts" validate:"required,min=1,dive"`
}

// SnapshotDailyBalances requests snapshots for the listed portfolios,
// or for every portfolio when the list is empty.
type SnapshotDailyBalances struct {
	PortfolioIDs []string `json:"portfolio_ids,omitempty"`
}
