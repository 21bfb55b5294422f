// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package archive

import "time"

// Policy sets how long each snapshot class is retained.
type Policy struct {
	// KeepDailyDays is the age in days past which daily snapshots expire.
	KeepDailyDays int
	// KeepMonthlyMonths is the age in months past which monthly snapshots
	// expire. A month is approximated as 31 days so a snapshot is never
	// pruned early.
	KeepMonthlyMonths int
}

const (
	monthlyLayout = "200601"
	dailyLayout   = "20060102"
)

// MonthlyName returns the rolling monthly snapshot name for a layer.
func MonthlyName(layer string, now time.Time) string {
	return layer + "_" + now.Format(monthlyLayout)
}

// DailyName returns the immutable daily snapshot name for a layer.
func DailyName(layer string, now time.Time) string {
	return layer + "_" + now.Format(dailyLayout)
}

// snapshotDate splits a dataset name into its date suffix and retention
// class. Classification is positional: the last underscore must sit
// exactly before a 6-digit (monthly) or 8-digit (daily) suffix. Names
// that fit neither shape are not snapshots and are never pruned.
func snapshotDate(name string) (date string, daily, ok bool) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] != '_' {
			continue
		}
		suffix := name[i+1:]
		if !allDigits(suffix) {
			return "", false, false
		}
		switch len(suffix) {
		case len(monthlyLayout):
			return suffix, false, true
		case len(dailyLayout):
			return suffix, true, true
		}
		return "", false, false
	}
	return "", false, false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Expired selects the dataset names whose snapshot date falls strictly
// before the policy cutoff for their class. Fixed-width big-endian date
// strings order the same lexicographically as chronologically, so the
// comparison is plain string less-than.
func Expired(names []string, now time.Time, p Policy) []string {
	dailyCutoff := now.AddDate(0, 0, -p.KeepDailyDays).Format(dailyLayout)
	monthlyCutoff := now.Add(-time.Duration(p.KeepMonthlyMonths) * 31 * 24 * time.Hour).Format(monthlyLayout)

	var expired []string
	for _, name := range names {
		date, daily, ok := snapshotDate(name)
		if !ok {
			continue
		}
		if daily && date < dailyCutoff {
			expired = append(expired, name)
		}
		if !daily && date < monthlyCutoff {
			expired = append(expired, name)
		}
	}
	return expired
}
