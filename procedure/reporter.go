package procedure

import (
	"sync"
	"time"

	"github.com/justapithecus/decomp/failure"
	"github.com/justapithecus/decomp/log"
	"github.com/justapithecus/decomp/remote"
	"github.com/justapithecus/decomp/types"
)

// Event is a progress notice emitted while a run advances.
type Event struct {
	RunID    string
	Workflow types.WorkflowKind
	Artifact string
	Stage    types.Stage
	Message  string
	// Output is set on the event that carries the server's result.
	Output remote.Output
	// Err is set on failure events and on diagnostics.
	Err error
	// Diagnostic marks a failure that does not affect the run outcome,
	// such as a remote delete that failed during cleanup.
	Diagnostic bool
	Time       time.Time
}

// Reporter receives run progress. Implementations must be safe for
// concurrent use; runs on distinct artifacts report in parallel.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// Reporters fans an event out to every non-nil reporter in order.
type Reporters []Reporter

// Report forwards e to each reporter.
func (rs Reporters) Report(e Event) {
	for _, r := range rs {
		if r != nil {
			r.Report(e)
		}
	}
}

// LogReporter writes events as structured log lines.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter creates a reporter that logs through logger.
func NewLogReporter(logger *log.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs e at info level, failures at error level and diagnostics
// at warn level.
func (r *LogReporter) Report(e Event) {
	fields := map[string]any{
		"run_id":   e.RunID,
		"workflow": string(e.Workflow),
		"artifact": e.Artifact,
		"stage":    string(e.Stage),
	}
	if e.Output != nil {
		fields["output"] = map[string]any(e.Output)
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
		fields["error_kind"] = failure.KindName(e.Err)
	}

	switch {
	case e.Diagnostic:
		r.logger.Warn(e.Message, fields)
	case e.Err != nil:
		r.logger.Error(e.Message, fields)
	default:
		r.logger.Info(e.Message, fields)
	}
}

// Recording keeps every reported event in memory.
type Recording struct {
	mu     sync.Mutex
	events []Event
}

// Report appends e.
func (r *Recording) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the events reported so far.
func (r *Recording) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

var (
	_ Reporter = ReporterFunc(nil)
	_ Reporter = Reporters(nil)
	_ Reporter = (*LogReporter)(nil)
	_ Reporter = (*Recording)(nil)
)
