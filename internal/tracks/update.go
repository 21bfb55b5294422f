// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package tracks

import (
	"context"
	"fmt"
	"time"

	"github.com/geovault/geovault/internal/feature"
	"github.com/geovault/geovault/internal/logging"
	"github.com/geovault/geovault/internal/metrics"
	"github.com/geovault/geovault/internal/remote"
	"github.com/geovault/geovault/internal/store"
	gvsync "github.com/geovault/geovault/internal/sync"
)

// UpdateOptions tunes one track rebuild.
type UpdateOptions struct {
	// Segment controls partitioning and gap breaking.
	Segment Options
	// Timezone resolves ping timestamps to calendar dates for the
	// user_date key. Nil means UTC.
	Timezone *time.Location
	// Sync tunes the incremental pull of the points dataset.
	Sync gvsync.SyncOptions
	// Replicate tunes the initial full download when the points dataset
	// does not exist yet.
	Replicate gvsync.ReplicateOptions
}

// UpdateBackups pulls new pings from the remote points dataset into the
// local store and rebuilds track assignments, the lines dataset, and the
// per-track statistics.
//
// Track ids are recomputed over the whole dataset on every run rather
// than extended incrementally: a late-arriving ping can split or merge
// tracks, so an incremental assignment would drift from the batch result.
func UpdateBackups(ctx context.Context, src remote.Dataset, st store.Store, points, lines string, opts UpdateOptions) error {
	hook := func(rows []feature.Record) error {
		return AddUserDate(rows, opts.Timezone)
	}

	exists, err := st.Has(points)
	if err != nil {
		return err
	}
	if exists {
		syncOpts := opts.Sync
		syncOpts.Hook = hook
		if _, err := gvsync.Sync(ctx, src, st, points, syncOpts); err != nil {
			return fmt.Errorf("failed to sync points: %w", err)
		}
	} else {
		logging.Info().Str("dataset", points).Msg("Points dataset does not exist, downloading in full")
		if _, err := gvsync.Replicate(ctx, src, st, points, opts.Replicate); err != nil {
			return fmt.Errorf("failed to replicate points: %w", err)
		}
	}

	if err := ensureDerivedFields(st, points); err != nil {
		return err
	}

	rows, err := st.Read(points, nil, nil)
	if err != nil {
		return err
	}
	if err := AddUserDate(rows, opts.Timezone); err != nil {
		return err
	}
	if err := AssignTrackIDs(rows, opts.Segment); err != nil {
		return err
	}
	metrics.TrackPingsProcessed.Add(float64(len(rows)))

	if err := writeAssignments(st, points, rows); err != nil {
		return err
	}

	stats := Summarize(rows)
	if err := rebuildLines(st, lines, rows); err != nil {
		return err
	}
	if err := JoinStats(st, lines, stats); err != nil {
		return err
	}
	metrics.TracksBuilt.Add(float64(len(stats)))
	logging.Info().Str("dataset", lines).Int("tracks", len(stats)).Int("pings", len(rows)).
		Msg("Track rebuild complete")
	return nil
}

// ensureDerivedFields adds the segmentation output fields to the points
// schema when absent.
func ensureDerivedFields(st store.Store, points string) error {
	schema, err := st.Schema(points)
	if err != nil {
		return err
	}
	derived := feature.Schema{
		{Name: FieldUserDate, Type: feature.TypeString},
		{Name: FieldTrackID, Type: feature.TypeInteger},
		{Name: FieldElapsed, Type: feature.TypeDouble},
		{Name: FieldUse, Type: feature.TypeInteger},
	}
	for _, f := range derived {
		if schema.Has(f.Name) {
			continue
		}
		if err := st.AddField(points, f); err != nil {
			return err
		}
	}
	return nil
}

// writeAssignments persists the recomputed derived fields, keyed by each
// ping's origin id.
func writeAssignments(st store.Store, points string, rows []feature.Record) error {
	for _, r := range rows {
		id, ok := r.Int(feature.OriginID)
		if !ok {
			continue
		}
		set := map[string]any{
			FieldUserDate: r[FieldUserDate],
			FieldTrackID:  r[FieldTrackID],
			FieldElapsed:  r[FieldElapsed],
			FieldUse:      r[FieldUse],
		}
		if sid, ok := r.Str(FieldSessionID); ok {
			set[FieldSessionID] = sid
		}
		if err := st.Update(points, feature.Eq(feature.OriginID, id), set); err != nil {
			return err
		}
	}
	return nil
}

func rebuildLines(st store.Store, lines string, rows []feature.Record) error {
	exists, err := st.Has(lines)
	if err != nil {
		return err
	}
	if exists {
		if err := st.Drop(lines); err != nil {
			return err
		}
	}
	if err := st.Create(lines, feature.KindFeatureLayer, LineSchema()); err != nil {
		return err
	}
	return st.Append(lines, BuildLines(rows), nil)
}
