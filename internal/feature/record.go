// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package feature

import "time"

// OriginID is the destination attribute that preserves the remote row id of
// every replicated row. It is distinct from any identifier the local store
// assigns and is the high-water mark for resumption and the dedup key for
// incremental sync.
const OriginID = "objectid_src"

// ShapeField is the conventional name of the geometry attribute on feature
// layers.
const ShapeField = "shape"

// FieldType enumerates the value types a dataset field can carry.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInteger
	TypeDouble
	TypeDate
	TypeGeometry
)

// String returns the lowercase name of the field type.
func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeDouble:
		return "double"
	case TypeDate:
		return "date"
	case TypeGeometry:
		return "geometry"
	default:
		return "unknown"
	}
}

// Field describes one attribute of a dataset schema.
type Field struct {
	Name string
	Type FieldType
}

// DatasetKind distinguishes plain tables from geometry-bearing feature
// layers. Replication refuses to mix the two.
type DatasetKind int

const (
	KindTable DatasetKind = iota
	KindFeatureLayer
)

// String returns the display name of the dataset kind.
func (k DatasetKind) String() string {
	if k == KindFeatureLayer {
		return "feature layer"
	}
	return "table"
}

// Record is one row of a dataset: a field-name -> value mapping. A nil
// value means the attribute is absent for this row.
type Record map[string]any

// Int returns the named value as int64 and whether it is present.
func (r Record) Int(name string) (int64, bool) {
	switch v := r[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Float returns the named value as float64 and whether it is present.
func (r Record) Float(name string) (float64, bool) {
	switch v := r[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Str returns the named value as a string and whether it is present.
func (r Record) Str(name string) (string, bool) {
	v, ok := r[name].(string)
	return v, ok
}

// Time returns the named value as a time.Time and whether it is present.
func (r Record) Time(name string) (time.Time, bool) {
	v, ok := r[name].(time.Time)
	return v, ok
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
