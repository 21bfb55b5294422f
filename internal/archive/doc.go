// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package archive orchestrates scheduled backups of hosted feature
// services into local stores: one store per service, one rolling monthly
// snapshot and one immutable daily snapshot per layer, and age-based
// pruning of expired snapshots.
//
// Snapshot names encode their retention class in the suffix. A monthly
// snapshot is named <layer>_YYYYMM and is overwritten on every run within
// the month; a daily snapshot is named <layer>_YYYYMMDD and is written
// once as a copy of that day's monthly snapshot. Pruning classifies
// snapshots purely by the suffix length and compares date strings
// lexicographically, which is safe because both forms are fixed-width
// big-endian dates.
package archive
