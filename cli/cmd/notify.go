package cmd

import (
	"fmt"

	"github.com/justapithecus/decomp/adapter"
	"github.com/justapithecus/decomp/adapter/redis"
	"github.com/justapithecus/decomp/adapter/webhook"
	"github.com/justapithecus/decomp/cli/config"
)

// buildNotifier creates the adapter named by cfg.Type.
// Returns nil, nil when no adapter is configured.
func buildNotifier(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "webhook":
		retries := webhook.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	case "redis":
		retries := redis.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return redis.New(redis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", cfg.Type)
	}
}

