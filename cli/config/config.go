package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Built-in defaults applied to values neither the file nor a flag sets.
const (
	DefaultDomainName  = "localhost"
	DefaultPublicPort  = 9000
	DefaultScheme      = "http"
	DefaultConcurrency = 4
	DefaultLogLevel    = "info"
)

// DefaultDataExtensions are the companion data file extensions enhance
// looks for when none are configured.
var DefaultDataExtensions = []string{".csv"}

// Config represents a decomp.yaml configuration file.
// All values are optional. CLI flags always override config values.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Workflow WorkflowConfig `yaml:"workflow"`
	History  HistoryConfig  `yaml:"history"`
	Adapter  AdapterConfig  `yaml:"adapter"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig locates the dec server.
type ServerConfig struct {
	DomainName string `yaml:"domainName"`
	PublicPort int    `yaml:"publicPort"`
	Scheme     string `yaml:"scheme"`
	// Timeout bounds each request. Zero means no timeout.
	Timeout Duration `yaml:"timeout"`
}

// WorkflowConfig holds workflow defaults.
type WorkflowConfig struct {
	DataExtensions []string `yaml:"dataExtensions"`
	// Concurrency is the maximum number of artifacts processed at once.
	Concurrency int `yaml:"concurrency"`
}

// HistoryConfig selects the run journal backend. An empty backend
// disables the journal.
type HistoryConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3PathStyle"`
}

// AdapterConfig selects the run_completed notifier. An empty type
// disables notifications.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Default returns a config holding only the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset value with its built-in default.
func (c *Config) ApplyDefaults() {
	if c.Server.DomainName == "" {
		c.Server.DomainName = DefaultDomainName
	}
	if c.Server.PublicPort == 0 {
		c.Server.PublicPort = DefaultPublicPort
	}
	if c.Server.Scheme == "" {
		c.Server.Scheme = DefaultScheme
	}
	if len(c.Workflow.DataExtensions) == 0 {
		c.Workflow.DataExtensions = append([]string(nil), DefaultDataExtensions...)
	}
	if c.Workflow.Concurrency == 0 {
		c.Workflow.Concurrency = DefaultConcurrency
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.DomainName) == "" {
		errs = append(errs, errors.New("server.domainName must be non-empty"))
	}
	if c.Server.PublicPort < 1 || c.Server.PublicPort > 65535 {
		errs = append(errs, fmt.Errorf("server.publicPort must be in 1..65535, got %d", c.Server.PublicPort))
	}
	switch c.Server.Scheme {
	case "http", "https":
	default:
		errs = append(errs, fmt.Errorf("server.scheme must be http or https, got %q", c.Server.Scheme))
	}
	if c.Server.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("server.timeout must be >= 0, got %s", c.Server.Timeout.Duration))
	}
	if c.Workflow.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("workflow.concurrency must be > 0, got %d", c.Workflow.Concurrency))
	}

	switch c.History.Backend {
	case "":
	case "fs", "s3":
		if c.History.Path == "" {
			errs = append(errs, fmt.Errorf("history.path is required for backend %q", c.History.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("history.backend must be fs or s3, got %q", c.History.Backend))
	}

	switch c.Adapter.Type {
	case "":
	case "webhook", "redis":
		if c.Adapter.URL == "" {
			errs = append(errs, fmt.Errorf("adapter.url is required for type %q", c.Adapter.Type))
		}
		if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
			errs = append(errs, fmt.Errorf("adapter.retries must be >= 0, got %d", *c.Adapter.Retries))
		}
	default:
		errs = append(errs, fmt.Errorf("adapter.type must be webhook or redis, got %q", c.Adapter.Type))
	}

	return errors.Join(errs...)
}
