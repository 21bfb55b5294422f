// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package feature

// Schema is the ordered field list of a dataset. Order is preserved from
// the source that declared it; field identity is by name.
type Schema []Field

// Lookup returns the field with the given name and whether it exists.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Has reports whether a field with the given name exists.
func (s Schema) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// WithField returns a copy of the schema with the field appended, or the
// schema unchanged if a field of that name already exists.
func (s Schema) WithField(f Field) Schema {
	if s.Has(f.Name) {
		return s
	}
	out := make(Schema, len(s), len(s)+1)
	copy(out, s)
	return append(out, f)
}
