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

var segBase = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func ping(user string, offsetSeconds float64) feature.Record {
	return feature.Record{
		FieldUserDate:  user,
		FieldTimestamp: segBase.Add(time.Duration(offsetSeconds * float64(time.Second))),
		FieldAccuracy:  5.0,
	}
}

// TestAssignTrackIDsGapBreak tests gap-based track splitting and elapsed
// seconds within one partition
func TestAssignTrackIDsGapBreak(t *testing.T) {
	t.Parallel()

	rows := []feature.Record{
		ping("ann-20260601", 0),
		ping("ann-20260601", 100),
		ping("ann-20260601", 800), // 700s gap, above the 600s threshold
		ping("ann-20260601", 850),
	}
	if err := AssignTrackIDs(rows, Options{}); err != nil {
		t.Fatalf("AssignTrackIDs failed: %v", err)
	}

	wantTrack := []int64{1, 1, 2, 2}
	wantElapsed := []float64{0, 100, 0, 50}
	for i, r := range rows {
		id, _ := r.Int(FieldTrackID)
		if id != wantTrack[i] {
			t.Errorf("ping %d track = %d, want %d", i, id, wantTrack[i])
		}
		el, _ := r.Float(FieldElapsed)
		if el != wantElapsed[i] {
			t.Errorf("ping %d elapsed = %v, want %v", i, el, wantElapsed[i])
		}
	}
}

// TestAssignTrackIDsGapBoundary tests that a gap of exactly the threshold
// does not split the track
func TestAssignTrackIDsGapBoundary(t *testing.T) {
	t.Parallel()

	rows := []feature.Record{
		ping("ann-20260601", 0),
		ping("ann-20260601", 600),
		ping("ann-20260601", 1201), // 601s gap splits
	}
	if err := AssignTrackIDs(rows, Options{}); err != nil {
		t.Fatalf("AssignTrackIDs failed: %v", err)
	}
	if id, _ := rows[1].Int(FieldTrackID); id != 1 {
		t.Errorf("gap equal to the threshold should not split, got track %d", id)
	}
	if id, _ := rows[2].Int(FieldTrackID); id != 2 {
		t.Errorf("gap above the threshold should split, got track %d", id)
	}
}

// TestAssignTrackIDsPartitions tests global cumulative ids across partitions
func TestAssignTrackIDsPartitions(t *testing.T) {
	t.Parallel()

	rows := []feature.Record{
		ping("bob-20260601", 0),
		ping("ann-20260601", 0),
		ping("ann-20260601", 1000), // split inside ann's partition
		ping("bob-20260601", 10),
	}
	if err := AssignTrackIDs(rows, Options{}); err != nil {
		t.Fatalf("AssignTrackIDs failed: %v", err)
	}

	// After the stable sort: ann 0, ann 1000, bob 0, bob 10.
	byUser := map[string][]int64{}
	for _, r := range rows {
		user, _ := r.Str(FieldUserDate)
		id, _ := r.Int(FieldTrackID)
		byUser[user] = append(byUser[user], id)
	}
	if got := byUser["ann-20260601"]; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("ann tracks = %v, want [1 2]", got)
	}
	if got := byUser["bob-20260601"]; len(got) != 2 || got[0] != 3 || got[1] != 3 {
		t.Errorf("bob tracks = %v, want [3 3]", got)
	}
}

// TestAssignTrackIDsDeterministic tests that shuffled input produces the
// same assignment
func TestAssignTrackIDsDeterministic(t *testing.T) {
	t.Parallel()

	build := func(order []float64) []feature.Record {
		rows := make([]feature.Record, 0, len(order))
		for _, off := range order {
			rows = append(rows, ping("ann-20260601", off))
		}
		return rows
	}

	a := build([]float64{0, 100, 800, 850})
	b := build([]float64{850, 0, 800, 100})
	if err := AssignTrackIDs(a, Options{}); err != nil {
		t.Fatalf("AssignTrackIDs failed: %v", err)
	}
	if err := AssignTrackIDs(b, Options{}); err != nil {
		t.Fatalf("AssignTrackIDs failed: %v", err)
	}

	for i := range a {
		ta, _ := a[i].Time(FieldTimestamp)
		tb, _ := b[i].Time(FieldTimestamp)
		if !ta.Equal(tb) {
			t.Fatalf("sorted order differs at %d", i)
		}
		ia, _ := a[i].Int(FieldTrackID)
		ib, _ := b[i].Int(FieldTrackID)
		if ia != ib {
			t.Errorf("track id differs at %d: %d != %d", i, ia, ib)
		}
	}
}

// TestAssignTrackIDsSetsUseFlag tests that the use flag is written during
// segmentation
func TestAssignTrackIDsSetsUseFlag(t *testing.T) {
	t.Parallel()

	good := ping("ann-20260601", 0)
	bad := ping("ann-20260601", 10)
	bad[FieldAccuracy] = 50.0
	rows := []feature.Record{good, bad}
	if err := AssignTrackIDs(rows, Options{}); err != nil {
		t.Fatalf("AssignTrackIDs failed: %v", err)
	}
	if v, _ := good.Int(FieldUse); v != 1 {
		t.Errorf("accurate ping use = %d, want 1", v)
	}
	if v, _ := bad.Int(FieldUse); v != 0 {
		t.Errorf("inaccurate ping use = %d, want 0", v)
	}
}

// TestAssignTrackIDsMissingTimestamp tests the error on a ping without a
// timestamp
func TestAssignTrackIDsMissingTimestamp(t *testing.T) {
	t.Parallel()

	rows := []feature.Record{{FieldUserDate: "ann-20260601"}}
	if err := AssignTrackIDs(rows, Options{}); err == nil {
		t.Error("expected error for ping without timestamp")
	}
}
