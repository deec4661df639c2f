package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/justapithecus/decomp/cli/render"
	"github.com/justapithecus/decomp/cli/tui"
	"github.com/justapithecus/decomp/failure"
	"github.com/justapithecus/decomp/history"
	"github.com/justapithecus/decomp/iox"
	"github.com/justapithecus/decomp/log"
	"github.com/justapithecus/decomp/metrics"
	"github.com/justapithecus/decomp/procedure"
	"github.com/justapithecus/decomp/remote"
	"github.com/justapithecus/decomp/transport"
	"github.com/justapithecus/decomp/types"
)

var workflowUsage = map[types.WorkflowKind]string{
	types.WorkflowDecompose: "Decompose service models on the dec server",
	types.WorkflowOptimize:  "Optimize service models and project their annual cost",
	types.WorkflowEnhance:   "Enhance service models with a companion data file",
}

// WorkflowCommands returns the decompose, optimize and enhance commands.
func WorkflowCommands() []*cli.Command {
	kinds := types.WorkflowKinds()
	cmds := make([]*cli.Command, 0, len(kinds))
	for _, kind := range kinds {
		cmds = append(cmds, WorkflowCommand(kind))
	}
	return cmds
}

// WorkflowCommand returns the command running kind on every artifact
// given as an argument.
func WorkflowCommand(kind types.WorkflowKind) *cli.Command {
	return &cli.Command{
		Name:      string(kind),
		Usage:     workflowUsage[kind],
		ArgsUsage: "<artifact> [artifact...]",
		Flags:     WorkflowFlags(),
		Action:    workflowAction(kind),
	}
}

// RunSummary is the table row of one run.
type RunSummary struct {
	Artifact   string        `json:"artifact"`
	Outcome    string        `json:"outcome"`
	AnnualCost string        `json:"annual_cost"`
	Backup     string        `json:"backup"`
	Error      string        `json:"error"`
	Duration   time.Duration `json:"duration"`
}

// BatchReport is the json and yaml output of a workflow command.
type BatchReport struct {
	Workflow types.WorkflowKind  `json:"workflow" yaml:"workflow"`
	Runs     []*procedure.Result `json:"runs" yaml:"runs"`
	Metrics  metrics.Snapshot    `json:"metrics" yaml:"metrics"`
}

func workflowAction(kind types.WorkflowKind) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit(fmt.Sprintf("%s requires at least one artifact path", kind), exitUsage)
		}

		cfg, err := loadSettings(c)
		if err != nil {
			return err
		}

		level, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}
		logger := log.NewLogger(level)
		defer iox.DiscardErr(logger.Sync)

		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}

		tc, err := transport.New(transport.Config{
			Host:    cfg.Server.DomainName,
			Port:    cfg.Server.PublicPort,
			Scheme:  cfg.Server.Scheme,
			Timeout: cfg.Server.Timeout.Duration,
		})
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}
		defer iox.DiscardClose(tc)

		ctx, cancel := signalContext(c.Context)
		defer cancel()

		notifier, err := buildNotifier(cfg.Adapter)
		if err != nil {
			return cli.Exit(fmt.Sprintf("adapter: %v", err), exitUsage)
		}
		if notifier != nil {
			defer iox.DiscardClose(notifier)
		}

		artifacts, err := absPaths(c.Args().Slice())
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}

		journal, err := history.Open(ctx, historyConfig(cfg.History))
		if err != nil {
			return cli.Exit(fmt.Sprintf("history: %v", err), exitUsage)
		}

		collector := metrics.NewCollector(tc.BaseURL())
		reporters := procedure.Reporters{procedure.NewLogReporter(logger)}
		var prog *tui.Program
		if c.Bool("tui") {
			prog = tui.NewProgram(kind, artifacts, cancel)
			prog.Start()
			reporters = append(reporters, prog)
		}

		pcfg := procedure.Config{
			Remote:         remote.New(tc),
			Logger:         logger,
			Collector:      collector,
			Reporter:       reporters,
			Notifier:       notifier,
			DataExtensions: cfg.Workflow.DataExtensions,
			Server:         tc.BaseURL(),
		}
		if journal != nil {
			pcfg.Journal = journal
		}
		orch, err := procedure.New(pcfg)
		if err != nil {
			return err
		}

		results := runBatch(ctx, orch, kind, artifacts, cfg.Workflow.Concurrency)

		if prog != nil {
			if err := prog.Finish(); err != nil {
				logger.Warn("progress view exited with error", map[string]any{"error": err.Error()})
			}
		}

		if err := renderBatch(r, kind, results, collector.Snapshot()); err != nil {
			return err
		}
		if anyFailed(results) {
			return cli.Exit("", exitRunFailed)
		}
		return nil
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func absPaths(args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		p, err := filepath.Abs(a)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", a, err)
		}
		out[i] = p
	}
	return out, nil
}

// runBatch runs kind on every artifact with at most limit runs in flight.
// Results keep the order of artifacts. A path repeated in the batch is
// run once; later occurrences are recorded as skipped.
func runBatch(ctx context.Context, orch *procedure.Orchestrator, kind types.WorkflowKind, artifacts []string, limit int) []*procedure.Result {
	results := make([]*procedure.Result, len(artifacts))
	seen := make(map[string]bool, len(artifacts))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, artifact := range artifacts {
		duplicate := seen[artifact]
		seen[artifact] = true
		g.Go(func() error {
			var (
				res *procedure.Result
				err error
			)
			if duplicate {
				res, err = orch.Skip(ctx, kind, artifact)
			} else {
				res, err = orch.Run(ctx, kind, artifact)
			}
			if res == nil {
				res = &procedure.Result{
					Workflow:  kind,
					Artifact:  artifact,
					Outcome:   types.OutcomeFailed,
					Error:     failure.NewReport(err),
					StartedAt: time.Now().UTC(),
				}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func anyFailed(results []*procedure.Result) bool {
	for _, res := range results {
		if res.Outcome == types.OutcomeFailed {
			return true
		}
	}
	return false
}

func summarize(res *procedure.Result) RunSummary {
	s := RunSummary{
		Artifact: filepath.Base(res.Artifact),
		Outcome:  string(res.Outcome),
		Duration: res.Duration,
	}
	if res.BackupPath != "" {
		s.Backup = filepath.Base(res.BackupPath)
	}
	if res.AnnualCost != nil {
		s.AnnualCost = fmt.Sprintf("%.2f", *res.AnnualCost)
	}
	if res.Error != nil && res.Outcome == types.OutcomeFailed {
		s.Error = res.Error.Message
	}
	return s
}

// renderBatch writes the run table and the metrics snapshot, or a single
// BatchReport document for json and yaml.
func renderBatch(r *render.Renderer, kind types.WorkflowKind, results []*procedure.Result, snap metrics.Snapshot) error {
	if r.Format() != render.FormatTable {
		return r.Render(BatchReport{Workflow: kind, Runs: results, Metrics: snap})
	}

	rows := make([]RunSummary, len(results))
	for i, res := range results {
		rows[i] = summarize(res)
	}
	if err := r.Render(rows); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(r.Writer()); err != nil {
		return err
	}
	return r.Render(snap)
}
