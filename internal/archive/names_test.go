// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package archive

import (
	"reflect"
	"sort"
	"testing"
	"time"
)

// TestSnapshotNames tests monthly and daily name construction
func TestSnapshotNames(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)
	if got := MonthlyName("hydrants", now); got != "hydrants_202602" {
		t.Errorf("MonthlyName = %s", got)
	}
	if got := DailyName("hydrants", now); got != "hydrants_20260201" {
		t.Errorf("DailyName = %s", got)
	}
}

// TestSnapshotClassification tests suffix-based classification
func TestSnapshotClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		wantDate  string
		wantDaily bool
		wantOK    bool
	}{
		{"roads_202601", "202601", false, true},
		{"roads_20260115", "20260115", true, true},
		{"multi_part_name_202601", "202601", false, true},
		{"roads", "", false, false},
		{"roads_abc123", "", false, false},
		{"roads_2026011", "", false, false}, // 7 digits fits neither class
		{"roads_", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			date, daily, ok := snapshotDate(tt.name)
			if date != tt.wantDate || daily != tt.wantDaily || ok != tt.wantOK {
				t.Errorf("snapshotDate(%s) = %q, %v, %v", tt.name, date, daily, ok)
			}
		})
	}
}

// TestExpired tests the retention cutoffs at a month boundary
func TestExpired(t *testing.T) {
	t.Parallel()

	// Feb 1 with 10 daily days: the daily cutoff is Jan 22, so snapshots
	// from late January survive the month change.
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	policy := Policy{KeepDailyDays: 10, KeepMonthlyMonths: 12}

	names := []string{
		"roads_20240125", // within 10 days, kept
		"roads_20240122", // exactly at the cutoff, kept
		"roads_20240121", // one day past, pruned
		"roads_20231201", // long expired daily
		"roads_202401",   // current monthly, kept
		"roads_202212",   // ~14 months old, pruned
		"roads_202301",   // cutoff month (12*31 days lands in Jan 2023), kept
		"roads",          // not a snapshot, never pruned
	}
	got := Expired(names, now, policy)
	sort.Strings(got)
	want := []string{"roads_202212", "roads_20231201", "roads_20240121"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expired = %v, want %v", got, want)
	}
}
