// Package main provides the decomp CLI entrypoint.
//
// Usage:
//
//	decomp <decompose|optimize|enhance> [options] <artifact>...
//	decomp history [options]
//	decomp version
//
// Exit codes:
//   - 0: every run succeeded or was skipped as a duplicate
//   - 1: at least one run failed
//   - 2: invalid configuration or usage
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/decomp/cli/cmd"
	"github.com/justapithecus/decomp/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "decomp",
		Usage:          "Run decompose, optimize and enhance on a RADON dec server",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: append(cmd.WorkflowCommands(),
			cmd.HistoryCommand(),
			cmd.VersionCommand(commit),
		),
	}
}

// exitErrHandler prints the error and exits with the code carried by
// cli.Exit, or 1 for any other error.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus returns the exit code for err and the message worth
// printing. cli.Exit("", N) yields no message.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return code, msg
	}
	return 1, fmt.Sprintf("Error: %v", err)
}
