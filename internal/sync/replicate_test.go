// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package sync

import (
	"context"
	"testing"

	"github.com/geovault/geovault/internal/feature"
	"github.com/geovault/geovault/internal/remote"
	"github.com/geovault/geovault/internal/store"
)

func newFakeTable(n int) *fakeDataset {
	rows := make([]feature.Record, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, feature.Record{
			"OBJECTID": int64(i),
			"name":     "row",
		})
	}
	return &fakeDataset{
		desc: remote.Description{Kind: feature.KindTable, OIDField: "OBJECTID"},
		schema: feature.Schema{
			{Name: "OBJECTID", Type: feature.TypeInteger},
			{Name: "name", Type: feature.TypeString},
		},
		rows: rows,
	}
}

// TestReplicateFull tests a clean full replication
func TestReplicateFull(t *testing.T) {
	t.Parallel()

	src := newFakeTable(25)
	st := store.NewMemory("mem://test")

	res, err := Replicate(context.Background(), src, st, "items", ReplicateOptions{})
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}
	if res.Appended != 25 {
		t.Errorf("expected 25 appended, got %d", res.Appended)
	}
	if res.CountMismatch || res.PartialData {
		t.Errorf("unexpected warnings: %+v", res)
	}

	maxID, found, err := st.MaxInt("items", feature.OriginID)
	if err != nil || !found || maxID != 25 {
		t.Errorf("MaxInt(%s) = %d, found=%v, %v", feature.OriginID, maxID, found, err)
	}
	schema, _ := st.Schema("items")
	if schema.Has("OBJECTID") {
		t.Error("remote row id should be stored under the origin id field, not its own name")
	}
}

// TestReplicateResumes tests that the count reconciliation loop picks up
// above the destination's maximum origin id
func TestReplicateResumes(t *testing.T) {
	t.Parallel()

	src := newFakeTable(30)
	src.pageLimit = 7
	st := store.NewMemory("mem://test")

	res, err := Replicate(context.Background(), src, st, "items", ReplicateOptions{})
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}
	if res.Appended != 30 {
		t.Errorf("expected 30 appended, got %d", res.Appended)
	}
	if res.CountMismatch {
		t.Error("resumed replication should reach the remote total")
	}

	// No origin id may appear twice after resumption.
	rows, err := st.Read("items", []string{feature.OriginID}, nil)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	seen := make(map[int64]bool)
	for _, r := range rows {
		id, _ := r.Int(feature.OriginID)
		if seen[id] {
			t.Fatalf("origin id %d appended twice", id)
		}
		seen[id] = true
	}
}

// TestReplicateReplacesExisting tests that an existing dataset is dropped
// before the new export
func TestReplicateReplacesExisting(t *testing.T) {
	t.Parallel()

	src := newFakeTable(3)
	st := store.NewMemory("mem://test")
	if err := st.Create("items", feature.KindTable, feature.Schema{{Name: "stale", Type: feature.TypeString}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := Replicate(context.Background(), src, st, "items", ReplicateOptions{}); err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}
	schema, _ := st.Schema("items")
	if schema.Has("stale") {
		t.Error("replication should replace the existing dataset schema")
	}
}

// TestReplicateRetryCeiling tests that exactly five failed rounds stop the
// download with a partial-data warning rather than an error
func TestReplicateRetryCeiling(t *testing.T) {
	t.Parallel()

	src := newFakeTable(20)
	src.pageLimit = 5
	// The initial export succeeds, every reconciliation query fails. The
	// failure budget runs out after five rounds.
	src.failAfter = 1
	st := store.NewMemory("mem://test")

	res, err := Replicate(context.Background(), src, st, "items", ReplicateOptions{})
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}
	if !res.PartialData {
		t.Error("expected partial-data warning")
	}
	if res.Retries != 5 {
		t.Errorf("expected exactly 5 retries, got %d", res.Retries)
	}
	if !res.CountMismatch {
		t.Error("partial download should report a count mismatch")
	}
	if res.Appended != 5 {
		t.Errorf("expected the initial page only, got %d", res.Appended)
	}
}

// TestReplicateStopsWithoutProgress tests the zero-progress stop rule when
// the remote total is unreachable
func TestReplicateStopsWithoutProgress(t *testing.T) {
	t.Parallel()

	src := newFakeTable(5)
	src.countOverride = 10
	st := store.NewMemory("mem://test")

	res, err := Replicate(context.Background(), src, st, "items", ReplicateOptions{})
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}
	if res.Appended != 5 {
		t.Errorf("expected 5 appended, got %d", res.Appended)
	}
	if !res.CountMismatch {
		t.Error("unreachable remote total should report a count mismatch")
	}
	if res.PartialData {
		t.Error("zero progress is not a retry failure")
	}
}
