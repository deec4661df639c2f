// Package adapter defines the notification boundary for finished runs.
//
// Adapters publish a run_completed event to a downstream system after
// every workflow run, whatever its outcome. Publishing is best-effort:
// a failed publish is logged and never changes the run result.
package adapter

import "context"

// EventTypeRunCompleted is the only event type published.
const EventTypeRunCompleted = "run_completed"

// RunCompletedEvent is the payload published when a run finishes.
type RunCompletedEvent struct {
	ContractVersion string   `json:"contract_version"`
	EventType       string   `json:"event_type"` // always "run_completed"
	RunID           string   `json:"run_id"`
	Workflow        string   `json:"workflow"` // decompose, optimize, enhance
	Artifact        string   `json:"artifact"`
	Server          string   `json:"server"`
	Outcome         string   `json:"outcome"` // success, failed, skipped
	ErrorKind       string   `json:"error_kind,omitempty"`
	Error           string   `json:"error,omitempty"`
	AnnualCost      *float64 `json:"annual_cost,omitempty"`
	BackupPath      string   `json:"backup_path,omitempty"`
	Timestamp       string   `json:"timestamp"` // ISO 8601
	DurationMs      int64    `json:"duration_ms"`
}

// Adapter publishes run completion events to a downstream system.
type Adapter interface {
	// Publish sends a run completion event.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
