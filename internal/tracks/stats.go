// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package tracks

import (
	"sort"
	"time"

	"github.com/golang/geo/s2"

	"github.com/geovault/geovault/internal/feature"
	"github.com/geovault/geovault/internal/store"
)

// Mean earth radius in meters, for geodesic length.
const earthRadiusMeters = 6371000.0

// Fields joined onto the lines dataset by JoinStats.
const (
	FieldPingCount   = "ping_count"
	FieldStartTime   = "start_time"
	FieldEndTime     = "end_time"
	FieldDurationMin = "duration_min"
	FieldLengthM     = "length_m"
	FieldMinAltitude = "min_altitude"
	FieldMaxAltitude = "max_altitude"
	FieldAvgAltitude = "avg_altitude"
	FieldAvgHAcc     = "avg_horizontal_accuracy"
	FieldAvgVAcc     = "avg_vertical_accuracy"
	FieldAvgSpeed    = "avg_speed"
)

// TrackStats summarizes one track from its usable pings.
type TrackStats struct {
	TrackID      int64
	Pings        int
	FullName     string
	UserDate     string
	SessionID    string
	Start        time.Time
	End          time.Time
	Created      time.Time
	DurationMin  float64
	LengthMeters float64
	MinAltitude  float64
	MaxAltitude  float64
	AvgAltitude  float64
	AvgHAcc      float64
	AvgVAcc      float64
	AvgSpeed     float64
}

// agg accumulates a numeric field over a track's pings.
type agg struct {
	min, max, sum float64
	n             int
}

func (a *agg) add(v float64) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.n++
}

func (a *agg) mean() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

// Summarize computes per-track statistics from segmented pings, in track
// id order. Only usable pings count; duration and length are rounded to
// two decimals. Negative sentinel readings are excluded from the accuracy
// and speed means.
func Summarize(rows []feature.Record) []TrackStats {
	byTrack := make(map[int64][]feature.Record)
	for _, r := range rows {
		use, _ := r.Int(FieldUse)
		if use != 1 {
			continue
		}
		id, ok := r.Int(FieldTrackID)
		if !ok {
			continue
		}
		byTrack[id] = append(byTrack[id], r)
	}

	ids := make([]int64, 0, len(byTrack))
	for id := range byTrack {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	stats := make([]TrackStats, 0, len(ids))
	for _, id := range ids {
		pings := byTrack[id]
		sort.SliceStable(pings, func(i, j int) bool {
			ti, _ := pings[i].Time(FieldTimestamp)
			tj, _ := pings[j].Time(FieldTimestamp)
			return ti.Before(tj)
		})

		st := TrackStats{TrackID: id, Pings: len(pings)}
		st.Start, _ = pings[0].Time(FieldTimestamp)
		st.End, _ = pings[len(pings)-1].Time(FieldTimestamp)
		st.DurationMin = round2(st.End.Sub(st.Start).Minutes())
		st.LengthMeters = round2(pathLength(pings))

		var alt, hacc, vacc, speed agg
		for _, p := range pings {
			if st.FullName == "" {
				st.FullName, _ = p.Str(FieldFullName)
			}
			if st.UserDate == "" {
				st.UserDate, _ = p.Str(FieldUserDate)
			}
			if st.SessionID == "" {
				st.SessionID, _ = p.Str(FieldSessionID)
			}
			if created, ok := p.Time(FieldCreated); ok && created.After(st.Created) {
				st.Created = created
			}
			if v, ok := p.Float(FieldAltitude); ok {
				alt.add(v)
			}
			if v, ok := measurement(p, FieldAccuracy); ok {
				hacc.add(v)
			}
			if v, ok := measurement(p, FieldVertAcc); ok {
				vacc.add(v)
			}
			if v, ok := measurement(p, FieldSpeed); ok {
				speed.add(v)
			}
		}
		st.MinAltitude = alt.min
		st.MaxAltitude = alt.max
		st.AvgAltitude = alt.mean()
		st.AvgHAcc = hacc.mean()
		st.AvgVAcc = vacc.mean()
		st.AvgSpeed = speed.mean()
		stats = append(stats, st)
	}
	return stats
}

// pathLength sums great-circle distances between consecutive ping
// positions.
func pathLength(pings []feature.Record) float64 {
	var meters float64
	var prev s2.LatLng
	havePrev := false
	for _, p := range pings {
		pt, ok := p[feature.ShapeField].(feature.Point)
		if !ok {
			continue
		}
		ll := s2.LatLngFromDegrees(pt.Y, pt.X)
		if havePrev {
			meters += prev.Distance(ll).Radians() * earthRadiusMeters
		}
		prev, havePrev = ll, true
	}
	return meters
}

// JoinStats writes per-track statistics onto the lines dataset, adding
// the statistics fields to the schema when absent and updating rows
// keyed by track id.
func JoinStats(st store.Store, lines string, stats []TrackStats) error {
	schema, err := st.Schema(lines)
	if err != nil {
		return err
	}
	wanted := feature.Schema{
		{Name: FieldPingCount, Type: feature.TypeInteger},
		{Name: FieldFullName, Type: feature.TypeString},
		{Name: FieldUserDate, Type: feature.TypeString},
		{Name: FieldSessionID, Type: feature.TypeString},
		{Name: FieldStartTime, Type: feature.TypeDate},
		{Name: FieldEndTime, Type: feature.TypeDate},
		{Name: FieldCreated, Type: feature.TypeDate},
		{Name: FieldDurationMin, Type: feature.TypeDouble},
		{Name: FieldLengthM, Type: feature.TypeDouble},
		{Name: FieldMinAltitude, Type: feature.TypeDouble},
		{Name: FieldMaxAltitude, Type: feature.TypeDouble},
		{Name: FieldAvgAltitude, Type: feature.TypeDouble},
		{Name: FieldAvgHAcc, Type: feature.TypeDouble},
		{Name: FieldAvgVAcc, Type: feature.TypeDouble},
		{Name: FieldAvgSpeed, Type: feature.TypeDouble},
	}
	for _, f := range wanted {
		if schema.Has(f.Name) {
			continue
		}
		if err := st.AddField(lines, f); err != nil {
			return err
		}
	}

	for _, s := range stats {
		set := map[string]any{
			FieldPingCount:   int64(s.Pings),
			FieldFullName:    s.FullName,
			FieldUserDate:    s.UserDate,
			FieldSessionID:   s.SessionID,
			FieldStartTime:   s.Start,
			FieldEndTime:     s.End,
			FieldCreated:     s.Created,
			FieldDurationMin: s.DurationMin,
			FieldLengthM:     s.LengthMeters,
			FieldMinAltitude: s.MinAltitude,
			FieldMaxAltitude: s.MaxAltitude,
			FieldAvgAltitude: s.AvgAltitude,
			FieldAvgHAcc:     s.AvgHAcc,
			FieldAvgVAcc:     s.AvgVAcc,
			FieldAvgSpeed:    s.AvgSpeed,
		}
		if err := st.Update(lines, feature.Eq(FieldTrackID, s.TrackID), set); err != nil {
			return err
		}
	}
	return nil
}
