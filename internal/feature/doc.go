// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package feature defines the shared vocabulary of the replication engine:
// schema-typed attribute records, the geometry primitives carried by feature
// layers, typed row filters, and field mappings.
//
// Both the remote dataset client (internal/remote) and the local store
// (internal/store) speak these types, which keeps the replicator and syncer
// (internal/sync) independent of any concrete transport or storage backend.
//
// # Records
//
// A Record is a field-name -> value mapping. Values are restricted to the
// types a feature service can carry:
//
//	string, int64, float64, time.Time, Point, Polyline, nil
//
// A nil value means the attribute is absent for that row. Typed accessors
// (Int, Float, Str, Time) report presence alongside the value so callers
// never have to distinguish "missing" from a zero value.
//
// # Origin identity
//
// Every replicated row carries its remote row id under the OriginID field.
// The origin id is the resumption and deduplication key for all sync paths:
// timestamps alone are ambiguous at same-instant boundaries, origin ids are
// not.
package feature
