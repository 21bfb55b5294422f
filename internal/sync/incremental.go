// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/geovault/geovault/internal/feature"
	"github.com/geovault/geovault/internal/logging"
	"github.com/geovault/geovault/internal/metrics"
	"github.com/geovault/geovault/internal/remote"
	"github.com/geovault/geovault/internal/store"
)

// DefaultWatermarkField is the creation-timestamp field bounding delta
// pulls when none is configured.
const DefaultWatermarkField = "created_date"

// DefaultLookback bounds the first pull of an empty destination.
const DefaultLookback = 365 * 24 * time.Hour

// Hook post-processes the staged delta before the final append. The
// location-tracking path uses it to derive the user_date composite key.
type Hook func(rows []feature.Record) error

// SyncOptions tunes one incremental sync run.
type SyncOptions struct {
	// WatermarkField is the creation-timestamp field. Default
	// DefaultWatermarkField.
	WatermarkField string
	// Lookback is how far back the first pull of an empty destination
	// reaches. Default DefaultLookback.
	Lookback time.Duration
	// Aliases routes reserved destination field names. Nil means detect
	// the default trailing-underscore table from the two schemas.
	Aliases AliasTable
	// Hook, if set, runs on the staged delta before the append.
	Hook Hook
	// Now supplies the current time; defaults to time.Now. Tests inject a
	// fixed clock here.
	Now func() time.Time
}

// Sync appends rows created since the destination's watermark from the
// remote dataset onto an existing destination dataset.
//
// The watermark query is inclusive and pulled rows already present (by
// origin id) are dropped, so re-execution with no new remote data appends
// nothing. Structural errors (ErrSchemaMismatch, ErrFieldMissing) are
// raised before any data movement.
func Sync(ctx context.Context, src remote.Dataset, st store.Store, dest string, opts SyncOptions) (Result, error) {
	var res Result

	if opts.WatermarkField == "" {
		opts.WatermarkField = DefaultWatermarkField
	}
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	desc, err := src.Describe(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to describe remote dataset: %w", err)
	}
	dstKind, err := st.Kind(dest)
	if err != nil {
		return res, err
	}
	if desc.Kind != dstKind {
		return res, fmt.Errorf("%w (%s, %s)", ErrSchemaMismatch, desc.Kind, dstKind)
	}

	srcSchema, err := src.Fields(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list remote fields: %w", err)
	}
	dstSchema, err := st.Schema(dest)
	if err != nil {
		return res, err
	}

	aliases := opts.Aliases
	if aliases == nil {
		aliases = DetectAliases(srcSchema, dstSchema)
	}
	for from, to := range aliases {
		logging.Info().Str("dataset", dest).Str("from", from).Str("to", to).
			Msg("Will send values to aliased field")
	}
	if err := checkFieldParity(srcSchema, dstSchema, desc.OIDField, aliases); err != nil {
		return res, err
	}

	lastDate, err := watermark(st, dest, opts)
	if err != nil {
		return res, err
	}

	// Inclusive boundary: the watermark instant may hold rows this
	// destination has not seen yet.
	pulled, err := src.Query(ctx, remote.Query{Filter: feature.GTE(opts.WatermarkField, lastDate)})
	if err != nil {
		return res, fmt.Errorf("delta query failed: %w", err)
	}
	res.Pulled = len(pulled)
	metrics.SyncRowsPulled.WithLabelValues(dest).Add(float64(len(pulled)))

	mapping, _ := BuildFieldMapping(srcSchema, desc.OIDField, aliases)
	staged := make([]feature.Record, 0, len(pulled))
	for _, r := range pulled {
		staged = append(staged, mapping.Apply(r))
	}

	staged, dropped, err := dropExisting(st, dest, opts.WatermarkField, lastDate, staged)
	if err != nil {
		return res, err
	}
	res.Deduplicated = dropped
	metrics.SyncRowsDeduplicated.WithLabelValues(dest).Add(float64(dropped))

	if len(staged) == 0 {
		logging.Info().Str("dataset", dest).Msg("No new data to append.")
		return res, nil
	}

	if opts.Hook != nil {
		if err := opts.Hook(staged); err != nil {
			return res, fmt.Errorf("delta hook failed: %w", err)
		}
	}

	logging.Info().Str("dataset", dest).Int("rows", len(staged)).Msg("Appending new rows...")
	if err := st.Append(dest, staged, nil); err != nil {
		return res, fmt.Errorf("delta append failed: %w", err)
	}
	res.Appended = int64(len(staged))
	metrics.SyncRowsAppended.WithLabelValues(dest).Add(float64(len(staged)))
	return res, nil
}

// watermark computes the sync lower bound: the destination's maximum
// watermark value, or the lookback default when the destination is empty.
func watermark(st store.Store, dest string, opts SyncOptions) (time.Time, error) {
	count, err := st.Count(dest, nil)
	if err != nil {
		return time.Time{}, err
	}
	if count == 0 {
		last := opts.Now().Add(-opts.Lookback)
		logging.Info().Str("dataset", dest).Time("since", last).
			Msg("No data exists in the copy dataset, will pull all data created after the lookback date")
		return last, nil
	}
	last, ok, err := st.MaxTime(dest, opts.WatermarkField)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return opts.Now().Add(-opts.Lookback), nil
	}
	return last, nil
}

// dropExisting removes staged rows whose origin id is already present in
// the destination at or after the watermark. The inclusive boundary query
// re-fetches rows persisted by the previous run; this is where they are
// discarded.
func dropExisting(st store.Store, dest, watermarkField string, since time.Time, staged []feature.Record) ([]feature.Record, int, error) {
	existing, err := st.Read(dest, []string{feature.OriginID}, feature.GTE(watermarkField, since))
	if err != nil {
		return nil, 0, err
	}
	seen := make(map[int64]bool, len(existing))
	for _, r := range existing {
		if id, ok := r.Int(feature.OriginID); ok {
			seen[id] = true
		}
	}

	kept := staged[:0]
	dropped := 0
	for _, r := range staged {
		if id, ok := r.Int(feature.OriginID); ok && seen[id] {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped, nil
}
