package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Required fields and enum values
//   - Negative tunables (zero is fine, defaults fill those in)
//   - Enabled sections missing their connection settings
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Engine.Workers < 0 {
		errs = append(errs, "engine: workers must not be negative")
	}
	if cfg.Engine.QueueDepth < 0 {
		errs = append(errs, "engine: queue_depth must not be negative")
	}
	if cfg.Engine.PassIntervalSec < 0 {
		errs = append(errs, "engine: pass_interval_sec must not be negative")
	}

	switch cfg.Store.Backend {
	case "memory":
	case "pebble":
		if cfg.Store.Path == "" {
			errs = append(errs, "store: path is required for the pebble backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("store: unknown backend %q (want memory or pebble)", cfg.Store.Backend))
	}

	if cfg.Ingest.Enabled {
		if len(cfg.Ingest.Brokers) == 0 {
			errs = append(errs, "ingest: brokers must not be empty when enabled")
		}
		if cfg.Ingest.Topic == "" {
			errs = append(errs, "ingest: topic is required when enabled")
		}
		if cfg.Ingest.GroupID == "" {
			errs = append(errs, "ingest: group_id is required when enabled")
		}
	}

	if cfg.Export.Kafka.Enabled {
		if len(cfg.Export.Kafka.Brokers) == 0 {
			errs = append(errs, "export: kafka.brokers must not be empty when enabled")
		}
		if cfg.Export.Kafka.Topic == "" {
			errs = append(errs, "export: kafka.topic is required when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
