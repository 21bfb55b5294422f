// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package tracks

import "github.com/geovault/geovault/internal/feature"

// Field names of the ping point schema.
const (
	FieldTimestamp = "location_timestamp"
	FieldAccuracy  = "horizontal_accuracy"
	FieldVertAcc   = "vertical_accuracy"
	FieldSpeed     = "speed"
	FieldCourse    = "course"
	FieldAltitude  = "altitude"
	FieldSessionID = "session_id"
	FieldFullName  = "full_name"
	FieldCreated   = "created_date"
	FieldUserDate  = "user_date"
)

// Derived fields written by the segmenter.
const (
	FieldTrackID = "track_id"
	FieldElapsed = "seconds_elapsed"
	FieldUse     = "use"
)

// Accuracy thresholds in meters. A tight fix stands on its own; a loose
// fix needs corroborating motion data.
const (
	accuracyTight = 10
	accuracyLoose = 25
)

// measurement reads a non-negative numeric field. GPS receivers report
// missing measurements as negative sentinels, so absent and negative both
// count as not present.
func measurement(r feature.Record, field string) (float64, bool) {
	v, ok := r.Float(field)
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

// UsePing reports whether a ping is reliable enough to contribute to
// track lines and statistics. A ping qualifies on horizontal accuracy
// within 10m, on accuracy within 25m backed by a speed or course reading,
// or on having both speed and course regardless of accuracy.
func UsePing(r feature.Record) bool {
	acc, hasAcc := measurement(r, FieldAccuracy)
	_, hasSpeed := measurement(r, FieldSpeed)
	_, hasCourse := measurement(r, FieldCourse)

	switch {
	case hasAcc && acc <= accuracyTight:
		return true
	case hasAcc && acc <= accuracyLoose && (hasSpeed || hasCourse):
		return true
	case hasSpeed && hasCourse:
		return true
	}
	return false
}
