// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultsAreValid tests that the built-in defaults pass validation
func TestDefaultsAreValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Sync.RetryAttempts != 5 {
		t.Errorf("default retry attempts = %d, want 5", cfg.Sync.RetryAttempts)
	}
	if cfg.Archive.KeepDailyDays != 10 || cfg.Archive.KeepMonthlyMonths != 12 {
		t.Errorf("default retention = %d days, %d months", cfg.Archive.KeepDailyDays, cfg.Archive.KeepMonthlyMonths)
	}
	if cfg.Tracks.BreakSeconds != 600 {
		t.Errorf("default break seconds = %d, want 600", cfg.Tracks.BreakSeconds)
	}
}

// TestEnvTransform tests mapping of environment names to koanf paths
func TestEnvTransform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"SYNC_RETRY_ATTEMPTS", "sync.retry_attempts"},
		{"ARCHIVE_KEEP_DAILY_DAYS", "archive.keep_daily_days"},
		{"TRACKS_BREAK_BY", "tracks.break_by"},
		{"LOGGING_LEVEL", "logging.level"},
		{"DATABASE_MAX_MEMORY", "database.max_memory"},
		{"PATH", ""},
		{"HOME", ""},
		{"UNRELATED_THING", ""},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestLoadEnvOverride tests that environment variables win over defaults
func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SYNC_RETRY_ATTEMPTS", "3")
	t.Setenv("TRACKS_BREAK_BY", "session_id")
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "nonexistent.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Sync.RetryAttempts != 3 {
		t.Errorf("retry attempts = %d, want 3", cfg.Sync.RetryAttempts)
	}
	if cfg.Tracks.BreakBy != "session_id" {
		t.Errorf("break by = %q, want session_id", cfg.Tracks.BreakBy)
	}
}

// TestLoadConfigFile tests YAML file layering
func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "archive:\n  keep_daily_days: 20\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Archive.KeepDailyDays != 20 {
		t.Errorf("keep daily days = %d, want 20", cfg.Archive.KeepDailyDays)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Archive.KeepMonthlyMonths != 12 {
		t.Errorf("keep monthly months = %d, want default 12", cfg.Archive.KeepMonthlyMonths)
	}
}

// TestValidateRejectsBadValues tests validation failures
func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Tracks.BreakBy = "color"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown break_by value")
	}

	cfg = defaultConfig()
	cfg.Sync.RetryAttempts = 11
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for retry attempts above the cap")
	}

	cfg = defaultConfig()
	cfg.Remote.Timeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero remote timeout")
	}

	cfg = defaultConfig()
	cfg.Tracks.Timezone = "Not/AZone"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

// TestLocation tests timezone resolution
func TestLocation(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Tracks.Timezone = "America/Denver"
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location failed: %v", err)
	}
	if loc.String() != "America/Denver" {
		t.Errorf("location = %s", loc)
	}

	cfg.Tracks.Timezone = "Local"
	loc, err = cfg.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Local should resolve to time.Local, got %v, %v", loc, err)
	}
}
