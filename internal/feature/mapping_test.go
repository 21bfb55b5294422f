// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package feature

import "testing"

// TestMappingApply tests field routing and dropping of unmapped fields
func TestMappingApply(t *testing.T) {
	t.Parallel()

	m := FieldMapping{
		{Src: "a", Dst: "a"},
		{Src: "b", Dst: "b_"},
	}
	out := m.Apply(Record{"a": int64(1), "b": "x", "c": "dropped"})

	if v, _ := out.Int("a"); v != 1 {
		t.Errorf("expected a=1, got %v", out["a"])
	}
	if v, _ := out.Str("b_"); v != "x" {
		t.Errorf("expected b_=x, got %v", out["b_"])
	}
	if _, ok := out["b"]; ok {
		t.Error("source name should not survive an aliased mapping")
	}
	if _, ok := out["c"]; ok {
		t.Error("unmapped field should be dropped")
	}
}

// TestNilMappingIsIdentity tests that a nil mapping clones the record
func TestNilMappingIsIdentity(t *testing.T) {
	t.Parallel()

	var m FieldMapping
	in := Record{"a": int64(1)}
	out := m.Apply(in)
	if v, _ := out.Int("a"); v != 1 {
		t.Errorf("expected a=1, got %v", out["a"])
	}
	out["a"] = int64(2)
	if v, _ := in.Int("a"); v != 1 {
		t.Error("identity mapping must clone, not alias, the input record")
	}
}

// TestMappingDst tests destination lookup
func TestMappingDst(t *testing.T) {
	t.Parallel()

	m := FieldMapping{{Src: "a", Dst: "b"}}
	if dst, ok := m.Dst("a"); !ok || dst != "b" {
		t.Errorf("Dst(a) = %q, %v", dst, ok)
	}
	if _, ok := m.Dst("missing"); ok {
		t.Error("Dst should report unmapped source fields")
	}
}
