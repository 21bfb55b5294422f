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

// DefaultRetryAttempts is the append retry ceiling during bulk
// replication. Transient failures beyond the ceiling downgrade to a
// partial-data warning instead of blocking.
const DefaultRetryAttempts = 5

// ReplicateOptions tunes one bulk replication run.
type ReplicateOptions struct {
	// Attempts bounds append retries. Default DefaultRetryAttempts.
	Attempts int
}

// Result summarizes one replication or sync run.
type Result struct {
	// Pulled is the number of rows fetched from the remote.
	Pulled int
	// Deduplicated is the number of pulled rows dropped because their
	// origin id was already present.
	Deduplicated int
	// Appended is the number of rows written to the destination.
	Appended int64
	// Retries is the number of failed append attempts.
	Retries int
	// PartialData is set when the retry ceiling was reached and the
	// destination holds only part of the remote data.
	PartialData bool
	// CountMismatch is set when the final destination count differs from
	// the remote's reported total.
	CountMismatch bool
}

// Replicate copies a remote dataset in full into a destination dataset,
// replacing any existing dataset of that name. After the initial export it
// reconciles counts by appending rows above the destination's maximum
// origin id, retrying failed appends up to the attempt ceiling, and stops
// early when a round makes no progress.
func Replicate(ctx context.Context, src remote.Dataset, st store.Store, name string, opts ReplicateOptions) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.ReplicationDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}

	var res Result

	desc, err := src.Describe(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to describe remote dataset: %w", err)
	}
	srcSchema, err := src.Fields(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list remote fields: %w", err)
	}
	mapping, dstSchema := BuildFieldMapping(srcSchema, desc.OIDField, nil)

	// Rolling snapshots are replaced in full on every run.
	exists, err := st.Has(name)
	if err != nil {
		return res, err
	}
	if exists {
		if err := st.Drop(name); err != nil {
			return res, err
		}
	}
	if err := st.Create(name, desc.Kind, dstSchema); err != nil {
		return res, err
	}

	total, err := src.Count(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to count remote rows: %w", err)
	}
	logging.Info().Str("dataset", name).Str("kind", desc.Kind.String()).Int64("rows", total).Msg("Getting rows...")

	rows, err := src.Query(ctx, remote.Query{})
	if err != nil {
		return res, fmt.Errorf("initial export failed: %w", err)
	}
	res.Pulled = len(rows)
	if err := st.Append(name, rows, mapping); err != nil {
		return res, fmt.Errorf("initial export failed: %w", err)
	}

	copied, err := st.Count(name, nil)
	if err != nil {
		return res, err
	}
	metrics.ReplicationRows.WithLabelValues(name).Add(float64(copied))

	failures := 0
	for copied < total {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		maxID, _, err := st.MaxInt(name, feature.OriginID)
		if err != nil {
			return res, err
		}

		delta, qerr := src.Query(ctx, remote.Query{Filter: feature.GT(desc.OIDField, maxID)})
		if qerr == nil {
			res.Pulled += len(delta)
			qerr = st.Append(name, delta, mapping)
		}
		if qerr != nil {
			failures++
			res.Retries = failures
			metrics.ReplicationRetries.WithLabelValues(name).Inc()
			if failures >= attempts {
				logging.Warn().Str("dataset", name).Err(qerr).
					Msg("Too many errors, giving up. Data only partially downloaded.")
				res.PartialData = true
				break
			}
			logging.Warn().Str("dataset", name).Err(qerr).
				Msgf("Server or append error, will keep trying (%d of %d)...", failures+1, attempts)
			continue
		}

		updated, err := st.Count(name, nil)
		if err != nil {
			return res, err
		}
		logging.Info().Str("dataset", name).Int64("rows", updated).Msgf("Done with %d rows.", updated)
		if updated == copied {
			// No progress: the remote total is unreachable, likely
			// concurrent deletes upstream.
			break
		}
		metrics.ReplicationRows.WithLabelValues(name).Add(float64(updated - copied))
		copied = updated
	}

	res.Appended = copied
	if copied != total {
		res.CountMismatch = true
		metrics.ReplicationCountMismatches.Inc()
		logging.Warn().Str("dataset", name).Int64("copied", copied).Int64("remote_total", total).
			Msg("Number of records downloaded did not match the count of records in the remote dataset. " +
				"This can happen due to download errors, or if the dataset is actively being updated.")
	}
	return res, nil
}
