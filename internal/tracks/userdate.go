// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package tracks

import (
	"fmt"
	"time"

	"github.com/geovault/geovault/internal/feature"
)

const userDateLayout = "20060102"

// AddUserDate derives the user_date composite key on every ping: the
// reporter's name and the ping's calendar date in the given timezone.
// Pings without a session id inherit the user_date as their session, so
// session-partitioned segmentation still groups them per person per day.
//
// The calendar date comes from the local clock, not UTC: a track that
// runs through local midnight belongs to the day it started on each side
// of the boundary, matching how people read their own movement history.
func AddUserDate(rows []feature.Record, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	for i, r := range rows {
		name, ok := r.Str(FieldFullName)
		if !ok {
			return fmt.Errorf("ping %d has no %s value", i, FieldFullName)
		}
		ts, ok := r.Time(FieldTimestamp)
		if !ok {
			return fmt.Errorf("ping %d has no %s value", i, FieldTimestamp)
		}
		userDate := name + "-" + ts.In(loc).Format(userDateLayout)
		r[FieldUserDate] = userDate
		if _, ok := r.Str(FieldSessionID); !ok {
			r[FieldSessionID] = userDate
		}
	}
	return nil
}
