package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/decomp/cli/config"
	"github.com/justapithecus/decomp/cli/render"
	"github.com/justapithecus/decomp/history"
	"github.com/justapithecus/decomp/types"
)

// HistoryRow is the table row of one journaled run.
type HistoryRow struct {
	StartedAt string `json:"started_at"`
	Workflow  string `json:"workflow"`
	Artifact  string `json:"artifact"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error_kind"`
	RunID     string `json:"run_id"`
}

// HistoryCommand returns the history command.
// It reads the run journal only and never contacts the dec server.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent runs recorded in the journal",
		Flags: append([]cli.Flag{
			ConfigFlag,
			&cli.StringFlag{
				Name:  "workflow",
				Usage: "Only list runs of this workflow: decompose, optimize, enhance",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list",
				Value: history.DefaultLimit,
			},
		}, ReadOnlyFlags()...),
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for history command", exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	workflow := c.String("workflow")
	if workflow != "" {
		if _, err := types.ParseWorkflowKind(workflow); err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}
	}
	if c.Int("limit") < 1 {
		return cli.Exit(fmt.Sprintf("--limit must be > 0, got %d", c.Int("limit")), exitUsage)
	}

	cfg, err := config.Resolve(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if cfg.History.Backend == "" {
		return cli.Exit("history is disabled: set history.backend in the config file", exitUsage)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), exitUsage)
	}

	journal, err := history.Open(c.Context, historyConfig(cfg.History))
	if err != nil {
		return cli.Exit(fmt.Sprintf("history: %v", err), exitUsage)
	}

	records, err := journal.Query(c.Context, history.Filter{
		Workflow: workflow,
		Limit:    c.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}

	if r.Format() != render.FormatTable {
		return r.Render(records)
	}
	rows := make([]HistoryRow, len(records))
	for i, rec := range records {
		rows[i] = HistoryRow{
			StartedAt: rec.StartedAt,
			Workflow:  rec.Workflow,
			Artifact:  filepath.Base(rec.Artifact),
			Outcome:   rec.Outcome,
			Error:     rec.ErrorKind,
			RunID:     rec.RunID,
		}
	}
	return r.Render(rows)
}

// historyConfig maps the config file section onto the journal options.
func historyConfig(cfg config.HistoryConfig) history.Config {
	return history.Config{
		Backend:      cfg.Backend,
		Path:         cfg.Path,
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		UsePathStyle: cfg.S3PathStyle,
	}
}
