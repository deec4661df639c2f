package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/decomp/cli/config"
)

// configVal returns the config value, or the zero value when cfg is nil.
func configVal[T any](cfg *config.Config, get func(*config.Config) T) T {
	if cfg == nil {
		var zero T
		return zero
	}
	return get(cfg)
}

// resolveString returns the flag value if set on the command line,
// otherwise the config value.
func resolveString(c *cli.Context, name, cfgVal string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	return cfgVal
}

// resolveInt returns the flag value if set on the command line,
// otherwise the config value.
func resolveInt(c *cli.Context, name string, cfgVal int) int {
	if c.IsSet(name) {
		return c.Int(name)
	}
	return cfgVal
}

// resolveDuration returns the flag value if set on the command line,
// otherwise the config value.
func resolveDuration(c *cli.Context, name string, cfgVal time.Duration) time.Duration {
	if c.IsSet(name) {
		return c.Duration(name)
	}
	return cfgVal
}

// resolveStrings returns the flag values if set on the command line,
// otherwise the config value.
func resolveStrings(c *cli.Context, name string, cfgVal []string) []string {
	if c.IsSet(name) {
		return c.StringSlice(name)
	}
	return cfgVal
}

// loadSettings merges the config file, command-line overrides and
// built-in defaults, then validates the result. Errors exit with
// exitUsage.
func loadSettings(c *cli.Context) (*config.Config, error) {
	fileCfg, err := config.Resolve(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), exitUsage)
	}

	cfg := *fileCfg
	cfg.Server.DomainName = resolveString(c, "host", configVal(fileCfg, func(c *config.Config) string { return c.Server.DomainName }))
	cfg.Server.PublicPort = resolveInt(c, "port", configVal(fileCfg, func(c *config.Config) int { return c.Server.PublicPort }))
	cfg.Server.Timeout.Duration = resolveDuration(c, "timeout", configVal(fileCfg, func(c *config.Config) time.Duration { return c.Server.Timeout.Duration }))
	cfg.Workflow.DataExtensions = resolveStrings(c, "data-ext", configVal(fileCfg, func(c *config.Config) []string { return c.Workflow.DataExtensions }))
	cfg.Workflow.Concurrency = resolveInt(c, "concurrency", configVal(fileCfg, func(c *config.Config) int { return c.Workflow.Concurrency }))
	cfg.Log.Level = resolveString(c, "log-level", configVal(fileCfg, func(c *config.Config) string { return c.Log.Level }))

	if c.IsSet("concurrency") && cfg.Workflow.Concurrency < 1 {
		return nil, cli.Exit(fmt.Sprintf("--concurrency must be > 0, got %d", cfg.Workflow.Concurrency), exitUsage)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid configuration: %v", err), exitUsage)
	}
	return &cfg, nil
}
