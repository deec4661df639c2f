package history

import (
	"time"

	"github.com/justapithecus/decomp/procedure"
	"github.com/justapithecus/decomp/types"
)

// RecordKindWorkflowRun discriminates run records from anything else
// stored in the dataset.
const RecordKindWorkflowRun = "workflow_run"

// dayFormat is the layout of the day partition key.
const dayFormat = "2006-01-02"

// RunRecord is one journaled run as read back from storage.
type RunRecord struct {
	RunID         string   `json:"run_id" yaml:"run_id"`
	Workflow      string   `json:"workflow" yaml:"workflow"`
	Day           string   `json:"day" yaml:"day"`
	Artifact      string   `json:"artifact" yaml:"artifact"`
	Server        string   `json:"server,omitempty" yaml:"server,omitempty"`
	Outcome       string   `json:"outcome" yaml:"outcome"`
	ErrorKind     string   `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error         string   `json:"error,omitempty" yaml:"error,omitempty"`
	AnnualCost    *float64 `json:"annual_cost,omitempty" yaml:"annual_cost,omitempty"`
	BackupPath    string   `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	CleanupErrors int      `json:"cleanup_errors" yaml:"cleanup_errors"`
	StartedAt     string   `json:"started_at" yaml:"started_at"`
	DurationMs    int64    `json:"duration_ms" yaml:"duration_ms"`
}

func (r RunRecord) startedAt() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, r.StartedAt)
	return t
}

// toRunRecordMap converts a run result to a map for Lode storage.
// Lode HiveLayout requires records as map[string]any.
func toRunRecordMap(r *procedure.Result) map[string]any {
	m := map[string]any{
		"record_kind":      RecordKindWorkflowRun,
		"contract_version": types.ContractVersion,
		"run_id":           r.RunID,
		"workflow":         string(r.Workflow), // partition key
		"day":              r.StartedAt.UTC().Format(dayFormat), // partition key
		"artifact":         r.Artifact,
		"server":           r.Server,
		"outcome":          string(r.Outcome),
		"backup_path":      r.BackupPath,
		"staged":           r.Staged,
		"cleanup_errors":   len(r.CleanupErrors),
		"started_at":       r.StartedAt.UTC().Format(time.RFC3339Nano),
		"duration_ms":      r.Duration.Milliseconds(),
	}
	if r.AnnualCost != nil {
		m["annual_cost"] = *r.AnnualCost
	}
	if r.Error != nil {
		m["error_kind"] = r.Error.Kind
		m["error"] = r.Error.Message
	}
	return m
}

// fromRecordMap decodes a stored record. ok is false for records of
// another kind.
func fromRecordMap(m map[string]any) (rec RunRecord, ok bool) {
	if m["record_kind"] != RecordKindWorkflowRun {
		return RunRecord{}, false
	}
	rec = RunRecord{
		RunID:         toString(m["run_id"]),
		Workflow:      toString(m["workflow"]),
		Day:           toString(m["day"]),
		Artifact:      toString(m["artifact"]),
		Server:        toString(m["server"]),
		Outcome:       toString(m["outcome"]),
		ErrorKind:     toString(m["error_kind"]),
		Error:         toString(m["error"]),
		BackupPath:    toString(m["backup_path"]),
		CleanupErrors: int(toInt64(m["cleanup_errors"])),
		StartedAt:     toString(m["started_at"]),
		DurationMs:    toInt64(m["duration_ms"]),
	}
	if v, ok := m["annual_cost"].(float64); ok {
		rec.AnnualCost = &v
	}
	return rec, true
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 accepts the numeric types a codec may decode into.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
