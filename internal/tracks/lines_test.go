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

func linePing(track int64, use int64, offsetSeconds float64, x, y float64) feature.Record {
	return feature.Record{
		FieldTrackID:       track,
		FieldUse:           use,
		FieldTimestamp:     segBase.Add(time.Duration(offsetSeconds * float64(time.Second))),
		feature.ShapeField: feature.Point{X: x, Y: y},
	}
}

// TestBuildLines tests polyline construction from usable pings
func TestBuildLines(t *testing.T) {
	t.Parallel()

	rows := []feature.Record{
		linePing(1, 1, 20, 0.2, 0.2), // out of order on purpose
		linePing(1, 1, 0, 0.0, 0.0),
		linePing(1, 0, 10, 9.9, 9.9), // unusable, must not appear
		linePing(1, 1, 30, 0.3, 0.3),
		linePing(2, 1, 0, 1.0, 1.0), // lone usable ping, no line
		linePing(3, 1, 0, 2.0, 2.0),
		linePing(3, 1, 5, 2.1, 2.1),
	}

	lines := BuildLines(rows)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	first, _ := lines[0].Int(FieldTrackID)
	if first != 1 {
		t.Errorf("first line track = %d, want 1", first)
	}
	shape, ok := lines[0][feature.ShapeField].(feature.Polyline)
	if !ok {
		t.Fatalf("expected Polyline, got %T", lines[0][feature.ShapeField])
	}
	if len(shape) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(shape))
	}
	if shape[0].X != 0.0 || shape[1].X != 0.2 || shape[2].X != 0.3 {
		t.Errorf("vertices not in timestamp order: %+v", shape)
	}

	second, _ := lines[1].Int(FieldTrackID)
	if second != 3 {
		t.Errorf("second line track = %d, want 3 (track 2 has one usable ping)", second)
	}
}

// TestBuildLinesEmpty tests behavior with no usable pings
func TestBuildLinesEmpty(t *testing.T) {
	t.Parallel()

	rows := []feature.Record{
		linePing(1, 0, 0, 0.0, 0.0),
		linePing(1, 0, 10, 0.1, 0.1),
	}
	if lines := BuildLines(rows); len(lines) != 0 {
		t.Errorf("expected no lines from unusable pings, got %d", len(lines))
	}
}
