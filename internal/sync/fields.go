// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package sync

import (
	"errors"
	"fmt"

	"github.com/geovault/geovault/internal/feature"
)

// ErrSchemaMismatch reports that source and destination are not the same
// dataset kind. Raised before any data movement.
var ErrSchemaMismatch = errors.New("datasets are not the same kind")

// ErrFieldMissing reports a source field with no destination counterpart.
// Raised before any data movement.
var ErrFieldMissing = errors.New("field not found in destination dataset")

// AliasTable routes source field names to reserved-name variants on the
// destination. Hosted services reserve some field names and store user
// data under a trailing-underscore variant; the table makes that policy
// explicit and inspectable instead of a string probe buried in the copy
// path.
type AliasTable map[string]string

// DetectAliases builds the default alias table by probing: a source field
// absent from the destination maps to `<name>_` when that variant exists
// on the destination and not on the source.
func DetectAliases(src, dst feature.Schema) AliasTable {
	aliases := make(AliasTable)
	for _, f := range src {
		if dst.Has(f.Name) {
			continue
		}
		variant := f.Name + "_"
		if dst.Has(variant) && !src.Has(variant) {
			aliases[f.Name] = variant
		}
	}
	return aliases
}

// BuildFieldMapping builds the source -> destination field routing and the
// destination schema it produces. Every attribute maps 1:1 (or through its
// alias), and the remote row id additionally maps to feature.OriginID so
// the destination keeps a precise high-water mark for resumption.
func BuildFieldMapping(src feature.Schema, oidField string, aliases AliasTable) (feature.FieldMapping, feature.Schema) {
	mapping := make(feature.FieldMapping, 0, len(src)+1)
	dst := make(feature.Schema, 0, len(src)+1)
	for _, f := range src {
		if f.Name == oidField {
			continue
		}
		name := f.Name
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		mapping = append(mapping, feature.FieldMap{Src: f.Name, Dst: name})
		dst = append(dst, feature.Field{Name: name, Type: f.Type})
	}
	mapping = append(mapping, feature.FieldMap{Src: oidField, Dst: feature.OriginID})
	dst = append(dst, feature.Field{Name: feature.OriginID, Type: feature.TypeInteger})
	return mapping, dst
}

// checkFieldParity verifies every source attribute has a destination
// counterpart, honoring the alias table. The remote row id, geometry, and
// global id are managed by the engine and exempt.
func checkFieldParity(src, dst feature.Schema, oidField string, aliases AliasTable) error {
	for _, f := range src {
		if f.Name == oidField || f.Name == feature.ShapeField || f.Name == "globalid" {
			continue
		}
		name := f.Name
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		if !dst.Has(name) {
			return fmt.Errorf("%w: %s", ErrFieldMissing, f.Name)
		}
	}
	return nil
}
