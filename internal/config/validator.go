package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - a positive flush interval
//   - a known backend with its connection parameters present
//   - recognised log settings
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Pipeline.FlushIntervalSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("pipeline.flush_interval_seconds must be > 0, got %d", cfg.Pipeline.FlushIntervalSeconds))
	}
	if cfg.Pipeline.FlatLog && cfg.Pipeline.DataDir == "" {
		errs = append(errs, "pipeline.data_dir is required when flat_log is enabled")
	}

	switch cfg.Database.Backend {
	case BackendSQLite:
		if cfg.Database.SQLitePath == "" {
			errs = append(errs, "database.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if cfg.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.backend must be %q or %q, got %q", BackendSQLite, BackendPostgres, cfg.Database.Backend))
	}
	if cfg.Database.MaxConns < 0 {
		errs = append(errs, "database.max_conns must not be negative")
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level))
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not one of text, json", cfg.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
