// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package config loads GeoVault configuration with Koanf v2 layered
// sources: built-in defaults, an optional YAML config file, then
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration.
//
// Loading order (highest priority wins): environment variables, config
// file (config.yaml), built-in defaults. Config is immutable after Load()
// and safe for concurrent reads.
type Config struct {
	Logging     LoggingConfig     `koanf:"logging"`
	Database    DatabaseConfig    `koanf:"database"`
	Remote      RemoteConfig      `koanf:"remote"`
	Archive     ArchiveConfig     `koanf:"archive"`
	Sync        SyncConfig        `koanf:"sync"`
	Tracks      TracksConfig      `koanf:"tracks"`
	Credentials CredentialsConfig `koanf:"credentials"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig tunes the DuckDB stores opened under the backup root.
type DatabaseConfig struct {
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads" validate:"min=0"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// RemoteConfig configures the feature-service HTTP client.
type RemoteConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	// RequestsPerSecond caps the request rate against the remote service.
	// Zero disables pacing.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"min=0"`
	Burst             int     `koanf:"burst" validate:"min=0"`
	// PageSize bounds how many rows one query requests.
	PageSize int `koanf:"page_size" validate:"min=1"`
}

// ArchiveConfig configures the retention manager.
type ArchiveConfig struct {
	// SourceFile is the plain-text URL list, one feature service per line,
	// '#' lines are comments.
	SourceFile string `koanf:"source_file"`
	// BackupRoot is the directory holding one store per archived service.
	BackupRoot string `koanf:"backup_root"`
	// KeepDailyDays prunes daily snapshots older than this many days.
	KeepDailyDays int `koanf:"keep_daily_days" validate:"min=1"`
	// KeepMonthlyMonths prunes monthly snapshots older than this many
	// months (approximated as months*31 days).
	KeepMonthlyMonths int `koanf:"keep_monthly_months" validate:"min=1"`
}

// SyncConfig configures incremental synchronization.
type SyncConfig struct {
	// WatermarkField is the creation-timestamp field bounding delta pulls.
	WatermarkField string `koanf:"watermark_field" validate:"required"`
	// LookbackDays is how far back the first pull of an empty destination
	// reaches.
	LookbackDays int `koanf:"lookback_days" validate:"min=1"`
	// RetryAttempts bounds append retries during bulk replication.
	RetryAttempts int `koanf:"retry_attempts" validate:"min=1,max=10"`
}

// TracksConfig configures track segmentation.
type TracksConfig struct {
	// BreakBy is the grouping key partitioning pings before clustering.
	BreakBy string `koanf:"break_by" validate:"oneof=session_id full_name user_date"`
	// BreakSeconds is the gap above which a new track starts.
	BreakSeconds int `koanf:"break_seconds" validate:"min=1"`
	// Timezone names the local zone used to derive user_date from the UTC
	// ping timestamps.
	Timezone string `koanf:"timezone"`
}

// CredentialsConfig points at the two-line credential file consumed by the
// sign-in collaborator.
type CredentialsConfig struct {
	File string `koanf:"file"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			MaxMemory:              "2GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		Remote: RemoteConfig{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
			PageSize:          1000,
		},
		Archive: ArchiveConfig{
			SourceFile:        "urls.txt",
			BackupRoot:        "/data/backups",
			KeepDailyDays:     10,
			KeepMonthlyMonths: 12,
		},
		Sync: SyncConfig{
			WatermarkField: "created_date",
			LookbackDays:   365,
			RetryAttempts:  5,
		},
		Tracks: TracksConfig{
			BreakBy:      "user_date",
			BreakSeconds: 600,
			Timezone:     "Local",
		},
		Credentials: CredentialsConfig{
			File: "",
		},
	}
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be positive, got %s", c.Remote.Timeout)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("tracks.timezone: %w", err)
	}
	return nil
}

// Location resolves the configured tracks timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Tracks.Timezone == "" || c.Tracks.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Tracks.Timezone)
}
