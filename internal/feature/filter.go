// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package feature

import "time"

// Op is a filter comparison operator.
type Op int

const (
	OpEq Op = iota
	OpGT
	OpGTE
	OpIsNull
)

// Filter selects rows by comparing one field against a value. A nil
// *Filter matches every row. Values compare by the same type families a
// Record can carry; rows where the field is absent never match a value
// comparison.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) *Filter {
	return &Filter{Field: field, Op: OpEq, Value: value}
}

// GT builds a strictly-greater-than filter.
func GT(field string, value any) *Filter {
	return &Filter{Field: field, Op: OpGT, Value: value}
}

// GTE builds a greater-or-equal filter. Watermark queries use this form:
// the boundary value may hold several rows and an exclusive comparison
// would lose same-instant siblings.
func GTE(field string, value any) *Filter {
	return &Filter{Field: field, Op: OpGTE, Value: value}
}

// IsNull builds a filter matching rows where the field is absent.
func IsNull(field string) *Filter {
	return &Filter{Field: field, Op: OpIsNull}
}

// Matches evaluates the filter against a record in memory.
func (f *Filter) Matches(r Record) bool {
	if f == nil {
		return true
	}
	v, present := r[f.Field]
	if present && v == nil {
		present = false
	}
	if f.Op == OpIsNull {
		return !present
	}
	if !present {
		return false
	}
	cmp, ok := compareValues(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEq:
		return cmp == 0
	case OpGT:
		return cmp > 0
	case OpGTE:
		return cmp >= 0
	default:
		return false
	}
}

// compareValues compares two record values of the same type family.
// Returns -1/0/1 and whether the pair was comparable.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case int64:
		bv, ok := asInt(b)
		if !ok {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case float64:
		bv, ok := asFloat(b)
		if !ok {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
