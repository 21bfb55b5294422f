// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/geovault/geovault/internal/feature"
)

// Memory is a map-backed Store with the same semantics as the DuckDB
// implementation. It backs component tests and small in-process runs.
type Memory struct {
	path string

	mu       sync.RWMutex
	datasets map[string]*memDataset
}

type memDataset struct {
	kind   feature.DatasetKind
	schema feature.Schema
	rows   []feature.Record
}

// NewMemory creates an empty in-memory store.
func NewMemory(path string) *Memory {
	return &Memory{
		path:     path,
		datasets: make(map[string]*memDataset),
	}
}

// Path identifies the store location.
func (m *Memory) Path() string { return m.path }

// List returns all dataset names, sorted.
func (m *Memory) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.datasets))
	for name := range m.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Has reports whether the named dataset exists.
func (m *Memory) Has(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.datasets[name]
	return ok, nil
}

// Kind returns the dataset kind.
func (m *Memory) Kind(name string) (feature.DatasetKind, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[name]
	if !ok {
		return 0, noDataset(name)
	}
	return ds.kind, nil
}

// Schema returns a copy of the dataset schema.
func (m *Memory) Schema(name string) (feature.Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[name]
	if !ok {
		return nil, noDataset(name)
	}
	out := make(feature.Schema, len(ds.schema))
	copy(out, ds.schema)
	return out, nil
}

// Create adds an empty dataset.
func (m *Memory) Create(name string, kind feature.DatasetKind, schema feature.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[name]; ok {
		return fmt.Errorf("%w: %s", ErrDatasetExists, name)
	}
	s := make(feature.Schema, len(schema))
	copy(s, schema)
	m.datasets[name] = &memDataset{kind: kind, schema: s}
	return nil
}

// Drop removes datasets.
func (m *Memory) Drop(names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		if _, ok := m.datasets[name]; !ok {
			return noDataset(name)
		}
		delete(m.datasets, name)
	}
	return nil
}

// Copy duplicates src into dst, replacing dst if present.
func (m *Memory) Copy(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, ok := m.datasets[src]
	if !ok {
		return noDataset(src)
	}
	schema := make(feature.Schema, len(from.schema))
	copy(schema, from.schema)
	rows := make([]feature.Record, len(from.rows))
	for i, r := range from.rows {
		rows[i] = r.Clone()
	}
	m.datasets[dst] = &memDataset{kind: from.kind, schema: schema, rows: rows}
	return nil
}

// Count returns the number of rows matching the filter.
func (m *Memory) Count(name string, f *feature.Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[name]
	if !ok {
		return 0, noDataset(name)
	}
	var n int64
	for _, r := range ds.rows {
		if f.Matches(r) {
			n++
		}
	}
	return n, nil
}

// Read returns matching rows restricted to the given fields.
func (m *Memory) Read(name string, fields []string, f *feature.Filter) ([]feature.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[name]
	if !ok {
		return nil, noDataset(name)
	}
	if fields == nil {
		fields = ds.schema.Names()
	}
	var out []feature.Record
	for _, r := range ds.rows {
		if !f.Matches(r) {
			continue
		}
		row := make(feature.Record, len(fields))
		for _, fld := range fields {
			row[fld] = r[fld]
		}
		out = append(out, row)
	}
	return out, nil
}

// Append bulk-adds rows through the mapping. Fields not present in the
// destination schema are dropped.
func (m *Memory) Append(name string, rows []feature.Record, mapping feature.FieldMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[name]
	if !ok {
		return noDataset(name)
	}
	for _, r := range rows {
		mapped := mapping.Apply(r)
		row := make(feature.Record, len(ds.schema))
		for _, fld := range ds.schema {
			if v, present := mapped[fld.Name]; present {
				row[fld.Name] = v
			}
		}
		ds.rows = append(ds.rows, row)
	}
	return nil
}

// Update sets field values on every matching row.
func (m *Memory) Update(name string, f *feature.Filter, set map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[name]
	if !ok {
		return noDataset(name)
	}
	for _, r := range ds.rows {
		if !f.Matches(r) {
			continue
		}
		for k, v := range set {
			if ds.schema.Has(k) {
				r[k] = v
			}
		}
	}
	return nil
}

// AddField appends a field to the schema.
func (m *Memory) AddField(name string, fld feature.Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[name]
	if !ok {
		return noDataset(name)
	}
	if ds.schema.Has(fld.Name) {
		return fmt.Errorf("field %s already exists on %s", fld.Name, name)
	}
	ds.schema = append(ds.schema, fld)
	return nil
}

// AlterFieldName renames a field, preserving values.
func (m *Memory) AlterFieldName(name, oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[name]
	if !ok {
		return noDataset(name)
	}
	idx := -1
	for i, fld := range ds.schema {
		if fld.Name == oldName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("field %s not found on %s", oldName, name)
	}
	ds.schema[idx].Name = newName
	for _, r := range ds.rows {
		if v, present := r[oldName]; present {
			r[newName] = v
			delete(r, oldName)
		}
	}
	return nil
}

// DeleteFields removes fields and their values. Unknown names are ignored.
func (m *Memory) DeleteFields(name string, fields []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[name]
	if !ok {
		return noDataset(name)
	}
	drop := make(map[string]bool, len(fields))
	for _, f := range fields {
		drop[f] = true
	}
	kept := ds.schema[:0]
	for _, fld := range ds.schema {
		if !drop[fld.Name] {
			kept = append(kept, fld)
		}
	}
	ds.schema = kept
	for _, r := range ds.rows {
		for f := range drop {
			delete(r, f)
		}
	}
	return nil
}

// MaxInt returns the maximum value of an integer field.
func (m *Memory) MaxInt(name, field string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[name]
	if !ok {
		return 0, false, noDataset(name)
	}
	var maxVal int64
	found := false
	for _, r := range ds.rows {
		v, present := r.Int(field)
		if !present {
			continue
		}
		if !found || v > maxVal {
			maxVal = v
			found = true
		}
	}
	return maxVal, found, nil
}

// MaxTime returns the maximum value of a date field.
func (m *Memory) MaxTime(name, field string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[name]
	if !ok {
		return time.Time{}, false, noDataset(name)
	}
	var maxVal time.Time
	found := false
	for _, r := range ds.rows {
		v, present := r.Time(field)
		if !present {
			continue
		}
		if !found || v.After(maxVal) {
			maxVal = v
			found = true
		}
	}
	return maxVal, found, nil
}

// Close releases the store.
func (m *Memory) Close() error { return nil }
