// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package tracks

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/geovault/geovault/internal/feature"
)

// DefaultBreakSeconds is the time gap that starts a new track within a
// partition.
const DefaultBreakSeconds = 600.0

// Options controls segmentation.
type Options struct {
	// BreakBy names the partition field: pings with different values of
	// this field never share a track. Default FieldUserDate.
	BreakBy string
	// BreakSeconds is the gap threshold in seconds. Default
	// DefaultBreakSeconds.
	BreakSeconds float64
}

func (o *Options) defaults() {
	if o.BreakBy == "" {
		o.BreakBy = FieldUserDate
	}
	if o.BreakSeconds <= 0 {
		o.BreakSeconds = DefaultBreakSeconds
	}
}

// AssignTrackIDs sorts pings by partition key then timestamp and writes
// the track_id, seconds_elapsed, and use fields onto every ping in place.
//
// Track ids are global and cumulative, starting at 1 with the first ping
// of the first partition. A new track starts on the first ping of each
// partition and whenever the gap to the previous ping exceeds the break
// threshold. seconds_elapsed is 0 on a track's first ping and the gap to
// the previous ping otherwise, rounded to two decimals. The sort is
// stable, so equal-timestamp pings keep their input order and the
// assignment is deterministic.
func AssignTrackIDs(rows []feature.Record, opts Options) error {
	opts.defaults()

	for i, r := range rows {
		if _, ok := r.Time(FieldTimestamp); !ok {
			return fmt.Errorf("ping %d has no %s value", i, FieldTimestamp)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ki, kj := partitionKey(rows[i], opts.BreakBy), partitionKey(rows[j], opts.BreakBy)
		if ki != kj {
			return ki < kj
		}
		ti, _ := rows[i].Time(FieldTimestamp)
		tj, _ := rows[j].Time(FieldTimestamp)
		return ti.Before(tj)
	})

	var (
		trackID  int64
		prevKey  string
		prevTime time.Time
	)
	for i, r := range rows {
		key := partitionKey(r, opts.BreakBy)
		ts, _ := r.Time(FieldTimestamp)

		gap := ts.Sub(prevTime).Seconds()
		if i == 0 || key != prevKey || gap > opts.BreakSeconds {
			trackID++
			r[FieldElapsed] = 0.0
		} else {
			r[FieldElapsed] = round2(gap)
		}
		r[FieldTrackID] = trackID

		if UsePing(r) {
			r[FieldUse] = int64(1)
		} else {
			r[FieldUse] = int64(0)
		}

		prevKey, prevTime = key, ts
	}
	return nil
}

// partitionKey reads the grouping field as a string. Missing values all
// land in the empty partition, which sorts first.
func partitionKey(r feature.Record, field string) string {
	if s, ok := r.Str(field); ok {
		return s
	}
	if t, ok := r.Time(field); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
