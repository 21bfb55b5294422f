// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package tracks reconstructs movement tracks from GPS ping points: it
// flags usable pings by measurement quality, partitions pings into tracks
// by a grouping key and a time-gap rule, builds polylines from the usable
// pings of each track, and summarizes per-track statistics.
//
// Track identifiers are global and cumulative across the whole dataset,
// assigned in partition-then-timestamp order, so the same input always
// produces the same ids. The elapsed-seconds field restarts at zero on
// every track boundary.
package tracks
