// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package tracks

import (
	"sort"

	"github.com/geovault/geovault/internal/feature"
)

// LineSchema is the schema of the track lines dataset before statistics
// are joined on.
func LineSchema() feature.Schema {
	return feature.Schema{
		{Name: FieldTrackID, Type: feature.TypeInteger},
		{Name: feature.ShapeField, Type: feature.TypeGeometry},
	}
}

// BuildLines connects the usable pings of each track into a polyline, in
// timestamp order. Tracks with fewer than two usable pings produce no
// line: a single fix has no extent.
func BuildLines(rows []feature.Record) []feature.Record {
	byTrack := make(map[int64][]feature.Record)
	var order []int64
	for _, r := range rows {
		use, _ := r.Int(FieldUse)
		if use != 1 {
			continue
		}
		id, ok := r.Int(FieldTrackID)
		if !ok {
			continue
		}
		if _, seen := byTrack[id]; !seen {
			order = append(order, id)
		}
		byTrack[id] = append(byTrack[id], r)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	var lines []feature.Record
	for _, id := range order {
		pings := byTrack[id]
		sort.SliceStable(pings, func(i, j int) bool {
			ti, _ := pings[i].Time(FieldTimestamp)
			tj, _ := pings[j].Time(FieldTimestamp)
			return ti.Before(tj)
		})

		line := make(feature.Polyline, 0, len(pings))
		for _, p := range pings {
			pt, ok := p[feature.ShapeField].(feature.Point)
			if !ok {
				continue
			}
			line = append(line, pt)
		}
		if len(line) < 2 {
			continue
		}
		lines = append(lines, feature.Record{
			FieldTrackID:       id,
			feature.ShapeField: line,
		})
	}
	return lines
}
