// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package store provides the local persistent store that replication
// targets: a collection of schema-typed datasets supporting create, bulk
// append with field mapping, filtered read/update, field alteration, and
// deletion.
//
// Two implementations exist: DuckDB (production, one database file per
// backup store) and Memory (tests and small in-process runs). Both honor
// identical semantics so components are tested against Memory and run
// against DuckDB.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/geovault/geovault/internal/feature"
)

// ErrNoDataset is returned when an operation names a dataset that does not
// exist in the store.
var ErrNoDataset = errors.New("dataset does not exist")

// ErrDatasetExists is returned by Create when the dataset already exists.
var ErrDatasetExists = errors.New("dataset already exists")

// Store is a named collection of schema-typed datasets.
//
// The engine assumes no two runs mutate the same dataset concurrently;
// this is an external invariant provided by the scheduler, not enforced
// here.
type Store interface {
	// Path identifies the store location.
	Path() string

	// List returns the names of all datasets in the store.
	List() ([]string, error)

	// Has reports whether the named dataset exists.
	Has(name string) (bool, error)

	// Kind returns the dataset kind (table or feature layer).
	Kind(name string) (feature.DatasetKind, error)

	// Schema returns the dataset's ordered field list.
	Schema(name string) (feature.Schema, error)

	// Create adds an empty dataset with the given kind and schema.
	Create(name string, kind feature.DatasetKind, schema feature.Schema) error

	// Drop removes the named datasets. Missing names are errors.
	Drop(names ...string) error

	// Copy duplicates src into dst, replacing dst if it exists.
	Copy(src, dst string) error

	// Count returns the number of rows matching the filter.
	Count(name string, f *feature.Filter) (int64, error)

	// Read returns rows matching the filter, restricted to the given
	// fields (nil means all fields).
	Read(name string, fields []string, f *feature.Filter) ([]feature.Record, error)

	// Append bulk-adds rows, routing source fields through the mapping.
	// Mapped fields absent from the destination schema are dropped rather
	// than rejected.
	Append(name string, rows []feature.Record, mapping feature.FieldMapping) error

	// Update sets the given field values on every row matching the filter.
	Update(name string, f *feature.Filter, set map[string]any) error

	// AddField appends a field to the dataset schema.
	AddField(name string, fld feature.Field) error

	// AlterFieldName renames a field, preserving values.
	AlterFieldName(name, oldName, newName string) error

	// DeleteFields removes fields and their values. Unknown names are
	// ignored.
	DeleteFields(name string, fields []string) error

	// MaxInt returns the maximum value of an integer field. The boolean
	// is false when the dataset has no non-null values for the field.
	MaxInt(name, field string) (int64, bool, error)

	// MaxTime returns the maximum value of a date field. The boolean is
	// false when the dataset has no non-null values for the field.
	MaxTime(name, field string) (time.Time, bool, error)

	// Close releases the store.
	Close() error
}

// Opener produces a Store for a filesystem path, creating it if absent.
type Opener func(path string) (Store, error)

func noDataset(name string) error {
	return fmt.Errorf("%w: %s", ErrNoDataset, name)
}
