// Package worker provides background job processing for RiskRoute.
package worker

import (
	"os"
	"strconv"
	"time"
)

// RefreshConfig holds configuration for the data refresh job.
type RefreshConfig struct {
	// Interval between scheduled refresh runs.
	// Default: 5 minutes
	Interval time.Duration

	// Timeout for a full refresh run (fetch, normalize, rebuild).
	// Default: 10 minutes
	Timeout time.Duration

	// RunOnStart triggers an immediate refresh when the scheduler starts.
	// Default: true
	RunOnStart bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Interval:   5 * time.Minute,
		Timeout:    10 * time.Minute,
		RunOnStart: true,
	}
}

// RefreshConfigFromEnv builds a refresh configuration from environment
// variables, falling back to defaults for unset or invalid values.
//
//	REFRESH_INTERVAL     Go duration, e.g. "5m"
//	REFRESH_TIMEOUT      Go duration, e.g. "10m"
//	REFRESH_RUN_ON_START "true" or "false"
func RefreshConfigFromEnv() RefreshConfig {
	cfg := DefaultRefreshConfig()

	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Interval = d
		}
	}
	if v := os.Getenv("REFRESH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("REFRESH_RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RunOnStart = b
		}
	}

	return cfg
}
