// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package remote

import (
	"testing"

	"github.com/geovault/geovault/internal/feature"
)

// TestWhereClause tests filter rendering edge cases
func TestWhereClause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter *feature.Filter
		want   string
	}{
		{"nil selects all", nil, "1=1"},
		{"integer", feature.GT("OBJECTID", int64(100)), "OBJECTID > 100"},
		{"equality", feature.Eq("status", "open"), "status = 'open'"},
		{"quote escaping", feature.Eq("name", "O'Brien"), "name = 'O''Brien'"},
		{"is null", feature.IsNull("session_id"), "session_id IS NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := whereClause(tt.filter); got != tt.want {
				t.Errorf("whereClause = %q, want %q", got, tt.want)
			}
		})
	}
}
