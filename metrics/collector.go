// Package metrics counts workflow activity for the lifetime of a process.
//
// The Collector is a leaf package with no internal dependencies. All
// increment methods are nil-receiver safe so callers may pass a nil
// collector to disable counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
type Snapshot struct {
	// Run lifecycle
	RunsStarted   int64 `json:"runs_started" yaml:"runs_started"`
	RunsCompleted int64 `json:"runs_completed" yaml:"runs_completed"`
	RunsFailed    int64 `json:"runs_failed" yaml:"runs_failed"`
	RunsSkipped   int64 `json:"runs_skipped" yaml:"runs_skipped"`

	// Stages
	UploadSuccess     int64 `json:"upload_success" yaml:"upload_success"`
	UploadFailure     int64 `json:"upload_failure" yaml:"upload_failure"`
	InvocationSuccess int64 `json:"invocation_success" yaml:"invocation_success"`
	InvocationFailure int64 `json:"invocation_failure" yaml:"invocation_failure"`
	DownloadSuccess   int64 `json:"download_success" yaml:"download_success"`
	DownloadFailure   int64 `json:"download_failure" yaml:"download_failure"`
	BackupsCreated    int64 `json:"backups_created" yaml:"backups_created"`

	// Cleanup (never affects run outcome)
	CleanupSuccess int64 `json:"cleanup_success" yaml:"cleanup_success"`
	CleanupFailure int64 `json:"cleanup_failure" yaml:"cleanup_failure"`

	// Side channels
	JournalWriteFailure int64 `json:"journal_write_failure" yaml:"journal_write_failure"`
	NotifyFailure       int64 `json:"notify_failure" yaml:"notify_failure"`

	// Server is the dimension label set at construction.
	Server string `json:"server" yaml:"server"`
}

// Collector accumulates counters. Safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	runsStarted   int64
	runsCompleted int64
	runsFailed    int64
	runsSkipped   int64

	uploadSuccess     int64
	uploadFailure     int64
	invocationSuccess int64
	invocationFailure int64
	downloadSuccess   int64
	downloadFailure   int64
	backupsCreated    int64

	cleanupSuccess int64
	cleanupFailure int64

	journalWriteFailure int64
	notifyFailure       int64

	server string
}

// NewCollector creates a Collector labelled with the server it talks to.
func NewCollector(server string) *Collector {
	return &Collector{server: server}
}

func (c *Collector) inc(counter *int64) {
	c.mu.Lock()
	*counter++
	c.mu.Unlock()
}

// --- Run lifecycle ---

// IncRunStarted records a run that passed the registry guard.
func (c *Collector) IncRunStarted() {
	if c == nil {
		return
	}
	c.inc(&c.runsStarted)
}

// IncRunCompleted records a successful run.
func (c *Collector) IncRunCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.runsCompleted)
}

// IncRunFailed records a failed run.
func (c *Collector) IncRunFailed() {
	if c == nil {
		return
	}
	c.inc(&c.runsFailed)
}

// IncRunSkipped records a run rejected because the artifact was busy.
func (c *Collector) IncRunSkipped() {
	if c == nil {
		return
	}
	c.inc(&c.runsSkipped)
}

// --- Stages ---

// RecordUpload records the result of one upload.
func (c *Collector) RecordUpload(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.inc(&c.uploadFailure)
		return
	}
	c.inc(&c.uploadSuccess)
}

// RecordInvocation records the result of one dec-tool operation.
func (c *Collector) RecordInvocation(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.inc(&c.invocationFailure)
		return
	}
	c.inc(&c.invocationSuccess)
}

// RecordDownload records the result of one download.
func (c *Collector) RecordDownload(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.inc(&c.downloadFailure)
		return
	}
	c.inc(&c.downloadSuccess)
}

// IncBackupCreated records a backup file written before an overwrite.
func (c *Collector) IncBackupCreated() {
	if c == nil {
		return
	}
	c.inc(&c.backupsCreated)
}

// RecordCleanup records the result of one remote delete.
func (c *Collector) RecordCleanup(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.inc(&c.cleanupFailure)
		return
	}
	c.inc(&c.cleanupSuccess)
}

// --- Side channels ---

// IncJournalWriteFailure records a run record that could not be journaled.
func (c *Collector) IncJournalWriteFailure() {
	if c == nil {
		return
	}
	c.inc(&c.journalWriteFailure)
}

// IncNotifyFailure records a completion notification that could not be published.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.inc(&c.notifyFailure)
}

// --- Snapshot ---

// Snapshot returns a point-in-time copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		RunsStarted:   c.runsStarted,
		RunsCompleted: c.runsCompleted,
		RunsFailed:    c.runsFailed,
		RunsSkipped:   c.runsSkipped,

		UploadSuccess:     c.uploadSuccess,
		UploadFailure:     c.uploadFailure,
		InvocationSuccess: c.invocationSuccess,
		InvocationFailure: c.invocationFailure,
		DownloadSuccess:   c.downloadSuccess,
		DownloadFailure:   c.downloadFailure,
		BackupsCreated:    c.backupsCreated,

		CleanupSuccess: c.cleanupSuccess,
		CleanupFailure: c.cleanupFailure,

		JournalWriteFailure: c.journalWriteFailure,
		NotifyFailure:       c.notifyFailure,

		Server: c.server,
	}
}
