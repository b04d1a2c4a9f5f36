package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants that cannot be repaired by
// normalization. It reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Checkout.WorkerPoolSize < 1 {
		problems = append(problems, "checkout.worker_pool_size must be at least 1")
	}
	if c.Checkout.PollIntervalSeconds < 1 {
		problems = append(problems, "checkout.poll_interval_seconds must be at least 1")
	}
	if c.Checkout.MaxRetries < 0 {
		problems = append(problems, "checkout.max_retries must not be negative")
	}
	if c.Intake.PollIntervalSeconds < 1 {
		problems = append(problems, "intake.poll_interval_seconds must be at least 1")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if c.Registry.Notifications && c.Registry.BaseURL == "" {
		problems = append(problems, "registry.base_url is required when registry.notifications is enabled")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
