// Package config provides centralized configuration management for the loader.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all loader configuration.
// All settings can be configured via environment variables; command-line
// flags override them.
type Config struct {
	Database DatabaseConfig
	Load     LoadConfig
	Source   SourceConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds sink connection settings.
type DatabaseConfig struct {
	// Driver is postgres, sqlite or mysql. Empty means infer from URL.
	Driver string `env:"DB_DRIVER"`

	// URL is the sink connection string or SQLite path (required).
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// ConnectTimeout bounds opening the sink (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// LoadConfig holds settings of a load run.
type LoadConfig struct {
	// DataDir is the local directory or s3://bucket/prefix holding the inputs.
	DataDir string `env:"CP_DATA_DIR" default:"data" required:"true"`

	// Release is the date stamp in CSV file names (default: 20201216)
	Release string `env:"CP_RELEASE" default:"20201216"`

	// DSSToxFiles is how many DSSToxDumpN.xlsx files to expect (default: 13)
	DSSToxFiles int `env:"CP_DSSTOX_FILES" default:"13"`

	// Sample switches to the *_sample file names.
	Sample bool `env:"CP_SAMPLE" default:"false"`

	// Manifest is an optional YAML file that replaces the naming convention.
	Manifest string `env:"CP_MANIFEST"`

	// Schema is a DDL file to run before loading, or "builtin".
	Schema string `env:"CP_SCHEMA"`

	// RunTimeout bounds the whole run; 0 disables it (default: 0)
	RunTimeout time.Duration `env:"CP_RUN_TIMEOUT" default:"0s"`
}

// SourceConfig holds object store settings for s3:// data directories.
type SourceConfig struct {
	Region    string `env:"CP_S3_REGION" envAlt:"AWS_REGION" default:"us-east-1"`
	Endpoint  string `env:"CP_S3_ENDPOINT"`
	PathStyle bool   `env:"CP_S3_PATH_STYLE" default:"false"`
}

// MetricsConfig holds Pushgateway settings. Metrics are pushed only when a
// URL is set.
type MetricsConfig struct {
	PushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL"`
	Job            string `env:"METRICS_JOB" default:"cpload"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
