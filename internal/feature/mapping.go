// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package feature

// FieldMap routes one source attribute to one destination attribute.
type FieldMap struct {
	Src string
	Dst string
}

// FieldMapping is an ordered source -> destination field routing, built by
// the field reconciler and consumed by store appends. A nil mapping means
// identity (field names pass through unchanged).
type FieldMapping []FieldMap

// Dst returns the destination name for a source field and whether the
// mapping routes it at all.
func (m FieldMapping) Dst(src string) (string, bool) {
	for _, fm := range m {
		if fm.Src == src {
			return fm.Dst, true
		}
	}
	return "", false
}

// Apply produces a destination-space record from a source-space record.
// Source fields absent from the mapping are dropped. A nil mapping returns
// a clone of the input.
func (m FieldMapping) Apply(r Record) Record {
	if m == nil {
		return r.Clone()
	}
	out := make(Record, len(m))
	for _, fm := range m {
		if v, ok := r[fm.Src]; ok {
			out[fm.Dst] = v
		}
	}
	return out
}
