// Package cmd provides CLI commands for the decomp binary.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/decomp/cli/config"
)

// Exit codes.
const (
	exitSuccess = 0
	// exitRunFailed means at least one run failed.
	exitRunFailed = 1
	// exitUsage means invalid configuration or usage.
	exitUsage = 2
)

// Shared output flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables the Bubble Tea progress view.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Show an interactive progress view (workflow commands only)",
	}

	// QuietFlag suppresses rendered output. Logs are unaffected.
	QuietFlag = &cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "Suppress report output",
	}
)

// Settings flags. Each overrides the matching config file key.
var (
	// ConfigFlag names the YAML config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to decomp.yaml",
		EnvVars: []string{config.EnvConfigPath},
	}

	// HostFlag overrides server.domainName.
	HostFlag = &cli.StringFlag{
		Name:  "host",
		Usage: "Dec server host (server.domainName)",
	}

	// PortFlag overrides server.publicPort.
	PortFlag = &cli.IntFlag{
		Name:  "port",
		Usage: "Dec server port (server.publicPort)",
	}

	// TimeoutFlag overrides server.timeout.
	TimeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Per-request timeout, 0 for none (server.timeout)",
	}

	// DataExtFlag overrides workflow.dataExtensions.
	DataExtFlag = &cli.StringSliceFlag{
		Name:  "data-ext",
		Usage: "Companion data file extension for enhance, repeatable (workflow.dataExtensions)",
	}

	// ConcurrencyFlag overrides workflow.concurrency.
	ConcurrencyFlag = &cli.IntFlag{
		Name:  "concurrency",
		Usage: "Maximum artifacts processed at once (workflow.concurrency)",
	}

	// LogLevelFlag overrides log.level.
	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error (log.level)",
	}
)

// ReadOnlyFlags returns the shared flags for commands that only render.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
		QuietFlag,
	}
}

// WorkflowFlags returns the flags of the decompose, optimize and enhance commands.
func WorkflowFlags() []cli.Flag {
	return append([]cli.Flag{
		ConfigFlag,
		HostFlag,
		PortFlag,
		TimeoutFlag,
		DataExtFlag,
		ConcurrencyFlag,
		LogLevelFlag,
	}, ReadOnlyFlags()...)
}
