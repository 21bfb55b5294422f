// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package sync implements the data-synchronization engine: resumable bulk
// replication of a remote dataset into a local store, and watermark-based
// incremental synchronization of append-only feeds.
//
// # Bulk replication
//
// Replicate performs one full export and then reconciles the destination
// row count against the remote's reported total. While the counts differ
// it appends only rows whose origin id exceeds the destination's current
// maximum, retrying failed appends up to a fixed ceiling. A retry round
// that adds zero rows stops the loop: the remote total is treated as
// unreachable (concurrent upstream deletes) rather than looping forever.
// A final count mismatch is reported as a warning, never an error.
//
// # Incremental sync
//
// Sync computes the destination's watermark (the maximum value of the
// creation-timestamp field), pulls remote rows at or after it, and drops
// any pulled row whose origin id is already present. The boundary
// comparison is deliberately inclusive: the watermark instant may hold
// several rows, and an exclusive filter would silently lose same-instant
// siblings. Deduplication by origin id makes re-execution idempotent.
//
// # Field reconciliation
//
// Both paths route fields through a FieldMapping built by the reconciler,
// which preserves the remote row id under feature.OriginID and resolves
// reserved-name collisions through an explicit alias table.
package sync
