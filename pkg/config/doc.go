// Package config provides configuration management for the policy model
// tools.
//
// Configuration is loaded from a YAML file, completed with defaults and
// overridden by environment variables:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("policymodels.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention
// POLICYMODELS_SECTION_FIELD. For example:
//
//   - POLICYMODELS_MODEL_PATH overrides model.path
//   - POLICYMODELS_STORAGE_SQLITE_PATH overrides storage.sqlite.path
//   - POLICYMODELS_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	model:
//	  path: "models/data-tags.yaml"
//	  watch: true
//
//	runtime:
//	  max_steps: 100000
//	  max_call_depth: 1000
//
//	query:
//	  match_mode: "contains"
//
//	storage:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/snapshots.db"
//	  retention:
//	    max_age: 720h
//	    schedule: "0 3 * * *"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// Validation errors include field paths:
//
//	configuration validation failed with 2 errors:
//	  - runtime.max_steps: max steps must be positive
//	  - storage.backend: invalid backend "postgres": must be one of 'sqlite', 'memory'
package config
