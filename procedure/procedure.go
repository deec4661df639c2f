// Package procedure runs decompose, optimize and enhance workflows end to end.
//
// A run stages the artifact (and, for enhance, its companion data file) on
// the dec server under fresh temporary names, invokes the operation,
// backs up the local artifact and overwrites it with the transformed
// model, and finally deletes every staged name. Cleanup runs whatever
// happened before it and its failures are reported as diagnostics only.
package procedure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/decomp/adapter"
	"github.com/justapithecus/decomp/backup"
	"github.com/justapithecus/decomp/failure"
	"github.com/justapithecus/decomp/log"
	"github.com/justapithecus/decomp/metrics"
	"github.com/justapithecus/decomp/remote"
	"github.com/justapithecus/decomp/tempname"
	"github.com/justapithecus/decomp/transport"
	"github.com/justapithecus/decomp/types"
)

// Precondition sentinels. Both are classified as failure.ErrPrecondition.
var (
	// ErrAlreadyProcessing is reported when another run holds the artifact.
	ErrAlreadyProcessing = errors.New("artifact is already being processed")
	// ErrNoDataFile is returned when enhance finds no companion data file.
	ErrNoDataFile = errors.New("no data file found")
)

// Remote is the dec server as seen by a run. *remote.Client implements it.
type Remote interface {
	Upload(ctx context.Context, localPath, remoteName string) (*transport.Response, error)
	Download(ctx context.Context, remoteName string) (*transport.Response, error)
	Delete(ctx context.Context, remoteName string) (*transport.Response, error)
	Decompose(ctx context.Context, model string) (remote.Output, error)
	Optimize(ctx context.Context, model string) (remote.Output, error)
	Enhance(ctx context.Context, model, data string) (remote.Output, error)
}

// Recorder persists finished runs. The history journal implements it.
type Recorder interface {
	Record(ctx context.Context, result *Result) error
}

// Config configures an Orchestrator.
type Config struct {
	// Remote is the dec server client (required).
	Remote Remote
	// Registry admits one run per artifact. If nil, a private registry is used.
	Registry *Registry
	// Logger receives run logs. If nil, logs are discarded.
	Logger *log.Logger
	// Collector counts runs and stages. May be nil.
	Collector *metrics.Collector
	// Reporter receives progress events. May be nil.
	Reporter Reporter
	// Journal records every finished run. May be nil.
	Journal Recorder
	// Notifier publishes a run_completed event per finished run. May be nil.
	Notifier adapter.Adapter
	// DataExtensions are the companion file extensions enhance looks for.
	// Defaults to DefaultDataExtensions.
	DataExtensions []string
	// Server labels results and events with the dec server address.
	Server string
}

// Result is the report of one run.
type Result struct {
	RunID    string              `json:"run_id" yaml:"run_id"`
	Workflow types.WorkflowKind  `json:"workflow" yaml:"workflow"`
	Artifact string              `json:"artifact" yaml:"artifact"`
	Server   string              `json:"server,omitempty" yaml:"server,omitempty"`
	Outcome  types.OutcomeStatus `json:"outcome" yaml:"outcome"`
	// Output is the structured result returned by the server.
	Output remote.Output `json:"output,omitempty" yaml:"output,omitempty"`
	// AnnualCost is set for successful optimize runs.
	AnnualCost *float64 `json:"annual_cost,omitempty" yaml:"annual_cost,omitempty"`
	// DataFile is the companion file an enhance run staged.
	DataFile string `json:"data_file,omitempty" yaml:"data_file,omitempty"`
	// BackupPath is the copy taken before the artifact was overwritten.
	BackupPath string `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	// Staged lists the remote names created on the server.
	Staged []string `json:"staged,omitempty" yaml:"staged,omitempty"`
	// CleanupErrors lists remote deletes that failed. They never change Outcome.
	CleanupErrors []string        `json:"cleanup_errors,omitempty" yaml:"cleanup_errors,omitempty"`
	Error         *failure.Report `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt     time.Time       `json:"started_at" yaml:"started_at"`
	Duration      time.Duration   `json:"duration" yaml:"duration"`
}

// Event converts the result to the notification payload.
func (r *Result) Event() *adapter.RunCompletedEvent {
	ev := &adapter.RunCompletedEvent{
		ContractVersion: types.ContractVersion,
		EventType:       adapter.EventTypeRunCompleted,
		RunID:           r.RunID,
		Workflow:        string(r.Workflow),
		Artifact:        r.Artifact,
		Server:          r.Server,
		Outcome:         string(r.Outcome),
		AnnualCost:      r.AnnualCost,
		BackupPath:      r.BackupPath,
		Timestamp:       r.StartedAt.Add(r.Duration).UTC().Format(time.RFC3339),
		DurationMs:      r.Duration.Milliseconds(),
	}
	if r.Error != nil {
		ev.ErrorKind = r.Error.Kind
		ev.Error = r.Error.Message
	}
	return ev
}

// Orchestrator runs workflows against one dec server.
// It is safe for concurrent use.
type Orchestrator struct {
	config Config
	logger *log.Logger
}

// New creates an orchestrator.
func New(config Config) (*Orchestrator, error) {
	if config.Remote == nil {
		return nil, errors.New("procedure: remote client is required")
	}
	if config.Registry == nil {
		config.Registry = NewRegistry()
	}
	if config.Logger == nil {
		config.Logger = log.NewNop()
	}
	if len(config.DataExtensions) == 0 {
		config.DataExtensions = DefaultDataExtensions
	}
	return &Orchestrator{config: config, logger: config.Logger}, nil
}

// run is the mutable state of one Run call.
type run struct {
	meta   *types.RunMeta
	logger *log.Logger
	result *Result
	// staged holds the remote names to delete during cleanup.
	staged []string
}

// Run executes workflow kind on the artifact at path.
//
// The returned error is the primary failure of the run, also recorded in
// Result.Error. A run refused because another run holds the artifact
// returns a skipped Result and a nil error; no network call is made.
// Cleanup, journaling and notification use a context detached from ctx
// so that a canceled run still removes what it staged.
func (o *Orchestrator) Run(ctx context.Context, kind types.WorkflowKind, path string) (*Result, error) {
	r, err := o.newRun(kind, path)
	if err != nil {
		return nil, err
	}
	detached := context.WithoutCancel(ctx)

	release, ok := o.config.Registry.TryAcquire(r.meta.Artifact)
	if !ok {
		o.skip(detached, r)
		return r.result, nil
	}
	defer release()

	o.config.Collector.IncRunStarted()
	o.report(r, types.StageIdle, fmt.Sprintf("Starting %s of %s", kind, filepath.Base(r.meta.Artifact)), nil)

	runErr := o.execute(ctx, r)
	if runErr != nil {
		r.result.Outcome = types.OutcomeFailed
		r.result.Error = failure.NewReport(runErr)
		o.config.Collector.IncRunFailed()
		o.report(r, types.StageFailed, fmt.Sprintf("%s failed", kind), runErr)
	}

	o.cleanup(detached, r)

	if runErr == nil {
		r.result.Outcome = types.OutcomeSuccess
		o.config.Collector.IncRunCompleted()
	}
	if runErr == nil {
		o.report(r, types.StageDone, fmt.Sprintf("%s complete", capitalize(string(kind))), nil)
	} else {
		o.report(r, types.StageDone, fmt.Sprintf("%s finished with errors", capitalize(string(kind))), nil)
	}
	o.finish(detached, r)
	return r.result, runErr
}

// Skip records a run of kind on path refused without touching the
// registry, as when a batch names the same artifact twice. The result is
// journaled and published like a registry refusal.
func (o *Orchestrator) Skip(ctx context.Context, kind types.WorkflowKind, path string) (*Result, error) {
	r, err := o.newRun(kind, path)
	if err != nil {
		return nil, err
	}
	o.skip(context.WithoutCancel(ctx), r)
	return r.result, nil
}

func (o *Orchestrator) newRun(kind types.WorkflowKind, path string) (*run, error) {
	if _, err := types.ParseWorkflowKind(string(kind)); err != nil {
		return nil, fmt.Errorf("procedure: %w", err)
	}
	artifact, err := filepath.Abs(path)
	if err != nil {
		return nil, failure.LocalIO("resolve", path, err)
	}

	meta := &types.RunMeta{RunID: uuid.NewString(), Kind: kind, Artifact: artifact}
	return &run{
		meta:   meta,
		logger: o.logger.ForRun(meta),
		result: &Result{
			RunID:     meta.RunID,
			Workflow:  kind,
			Artifact:  artifact,
			Server:    o.config.Server,
			StartedAt: time.Now().UTC(),
		},
	}, nil
}

func (o *Orchestrator) skip(ctx context.Context, r *run) {
	r.logger.Info("artifact is already being processed, skipping", nil)
	o.config.Collector.IncRunSkipped()
	r.result.Outcome = types.OutcomeSkipped
	r.result.Error = failure.NewReport(failure.Precondition("acquire", r.meta.Artifact, ErrAlreadyProcessing))
	o.report(r, types.StageDone, "Skipped: "+ErrAlreadyProcessing.Error(), nil)
	o.finish(ctx, r)
}

// execute runs every stage up to, not including, cleanup.
func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	artifact := r.meta.Artifact

	var dataPath string
	if r.meta.Kind == types.WorkflowEnhance {
		p, err := FindDataFile(artifact, o.config.DataExtensions)
		if err != nil {
			return err
		}
		dataPath = p
		r.result.DataFile = p
	}

	model, err := o.stage(ctx, r, artifact)
	if err != nil {
		return err
	}
	var data string
	if dataPath != "" {
		if data, err = o.stage(ctx, r, dataPath); err != nil {
			return err
		}
	}

	output, err := o.invoke(ctx, r, model, data)
	if err != nil {
		return err
	}
	r.result.Output = output

	if r.meta.Kind == types.WorkflowOptimize {
		hourly, err := output.TotalCost()
		if err != nil {
			return failure.Malformed("optimize "+model, err)
		}
		annual := AnnualCost(hourly)
		r.result.AnnualCost = &annual
	}

	if err := o.retrieve(ctx, r, model); err != nil {
		return err
	}

	msg := fmt.Sprintf("%s output received", capitalize(string(r.meta.Kind)))
	if r.result.AnnualCost != nil {
		msg = fmt.Sprintf("%s, annual cost %.2f", msg, *r.result.AnnualCost)
	}
	o.report(r, types.StageRetrieving, msg, nil, withOutput(output))
	return nil
}

// stage uploads localPath under a fresh remote name and registers the
// name for cleanup once the server has accepted it.
func (o *Orchestrator) stage(ctx context.Context, r *run, localPath string) (string, error) {
	name := tempname.Generate(filepath.Base(localPath))
	o.report(r, types.StageStaging, "Uploading "+filepath.Base(localPath), nil)

	_, err := o.config.Remote.Upload(ctx, localPath, name)
	o.config.Collector.RecordUpload(err)
	if err != nil {
		return "", err
	}

	r.staged = append(r.staged, name)
	r.result.Staged = append(r.result.Staged, name)
	r.logger.Debug("staged", map[string]any{"local": localPath, "remote": name})
	o.report(r, types.StageStaging, fmt.Sprintf("Successfully uploaded %s as %s", filepath.Base(localPath), name), nil)
	return name, nil
}

func (o *Orchestrator) invoke(ctx context.Context, r *run, model, data string) (remote.Output, error) {
	o.report(r, types.StageRemoteOp, fmt.Sprintf("Running %s", r.meta.Kind), nil)

	var (
		out remote.Output
		err error
	)
	switch r.meta.Kind {
	case types.WorkflowDecompose:
		out, err = o.config.Remote.Decompose(ctx, model)
	case types.WorkflowOptimize:
		out, err = o.config.Remote.Optimize(ctx, model)
	case types.WorkflowEnhance:
		out, err = o.config.Remote.Enhance(ctx, model, data)
	}
	o.config.Collector.RecordInvocation(err)
	return out, err
}

// retrieve downloads the transformed model, backs up the artifact and
// overwrites it. The artifact is untouched unless the whole body arrived
// and the backup was completed.
func (o *Orchestrator) retrieve(ctx context.Context, r *run, model string) error {
	artifact := r.meta.Artifact
	o.report(r, types.StageRetrieving, "Downloading "+model, nil)

	resp, err := o.config.Remote.Download(ctx, model)
	o.config.Collector.RecordDownload(err)
	if err != nil {
		return err
	}

	info, err := os.Stat(artifact)
	if err != nil {
		return failure.LocalIO("stat", artifact, err)
	}

	backupPath, err := backup.Create(artifact)
	if err != nil {
		return err
	}
	o.config.Collector.IncBackupCreated()
	r.result.BackupPath = backupPath
	r.logger.Info("backup created", map[string]any{"backup": backupPath})

	if err := os.WriteFile(artifact, resp.Body, info.Mode().Perm()); err != nil {
		return failure.LocalIO("write", artifact, err)
	}
	return nil
}

// cleanup deletes every staged name. Failures are diagnostics.
func (o *Orchestrator) cleanup(ctx context.Context, r *run) {
	if len(r.staged) == 0 {
		return
	}
	o.report(r, types.StageCleanup, "Removing staged files", nil)

	for _, name := range r.staged {
		_, err := o.config.Remote.Delete(ctx, name)
		o.config.Collector.RecordCleanup(err)
		if err != nil {
			r.result.CleanupErrors = append(r.result.CleanupErrors, err.Error())
			o.report(r, types.StageCleanup, "Cleanup failed for "+name, err, asDiagnostic())
			continue
		}
		r.logger.Debug("deleted staged file", map[string]any{"remote": name})
	}
}

// finish stamps the duration and hands the result to the journal and the
// notifier. Neither can fail the run.
func (o *Orchestrator) finish(ctx context.Context, r *run) {
	r.result.Duration = time.Since(r.result.StartedAt)

	if o.config.Journal != nil {
		if err := o.config.Journal.Record(ctx, r.result); err != nil {
			o.config.Collector.IncJournalWriteFailure()
			r.logger.Warn("failed to record run in journal", map[string]any{"error": err.Error()})
		}
	}
	if o.config.Notifier != nil {
		if err := o.config.Notifier.Publish(ctx, r.result.Event()); err != nil {
			o.config.Collector.IncNotifyFailure()
			r.logger.Warn("failed to publish run_completed", map[string]any{"error": err.Error()})
		}
	}
}

type eventOption func(*Event)

func withOutput(out remote.Output) eventOption {
	return func(e *Event) { e.Output = out }
}

func asDiagnostic() eventOption {
	return func(e *Event) { e.Diagnostic = true }
}

func (o *Orchestrator) report(r *run, stage types.Stage, msg string, err error, opts ...eventOption) {
	if o.config.Reporter == nil {
		return
	}
	e := Event{
		RunID:    r.meta.RunID,
		Workflow: r.meta.Kind,
		Artifact: r.meta.Artifact,
		Stage:    stage,
		Message:  msg,
		Err:      err,
		Time:     time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	o.config.Reporter.Report(e)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
