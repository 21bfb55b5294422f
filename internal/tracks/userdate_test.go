// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package tracks

import (
	"testing"
	"time"

	"github.com/geovault/geovault/internal/feature"
)

// TestAddUserDate tests composite key derivation in a local timezone
func TestAddUserDate(t *testing.T) {
	t.Parallel()

	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}

	// 03:00 UTC on June 2 is still June 1 in Denver.
	rows := []feature.Record{{
		FieldFullName:  "ann",
		FieldTimestamp: time.Date(2026, 6, 2, 3, 0, 0, 0, time.UTC),
	}}
	if err := AddUserDate(rows, denver); err != nil {
		t.Fatalf("AddUserDate failed: %v", err)
	}
	if v, _ := rows[0].Str(FieldUserDate); v != "ann-20260601" {
		t.Errorf("user_date = %q, want ann-20260601", v)
	}
}

// TestAddUserDateBackfillsSession tests session id backfill for pings
// without one
func TestAddUserDateBackfillsSession(t *testing.T) {
	t.Parallel()

	rows := []feature.Record{
		{
			FieldFullName:  "ann",
			FieldTimestamp: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			FieldFullName:  "bob",
			FieldTimestamp: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
			FieldSessionID: "bob-session-7",
		},
	}
	if err := AddUserDate(rows, time.UTC); err != nil {
		t.Fatalf("AddUserDate failed: %v", err)
	}
	if v, _ := rows[0].Str(FieldSessionID); v != "ann-20260601" {
		t.Errorf("missing session should be backfilled with user_date, got %q", v)
	}
	if v, _ := rows[1].Str(FieldSessionID); v != "bob-session-7" {
		t.Errorf("existing session must be preserved, got %q", v)
	}
}

// TestAddUserDateMissingName tests the error for pings without a reporter
func TestAddUserDateMissingName(t *testing.T) {
	t.Parallel()

	rows := []feature.Record{{FieldTimestamp: time.Now()}}
	if err := AddUserDate(rows, time.UTC); err == nil {
		t.Error("expected error for ping without full_name")
	}
}
