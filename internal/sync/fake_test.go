// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package sync

import (
	"context"
	"errors"
	"sort"

	"github.com/geovault/geovault/internal/feature"
	"github.com/geovault/geovault/internal/remote"
)

var errFakeQuery = errors.New("simulated server error")

// fakeDataset is a scripted remote.Dataset. rows hold source-space records
// keyed by the oid field. pageLimit caps rows per query so reconciliation
// has to resume; failQueries makes the next N queries fail.
type fakeDataset struct {
	desc   remote.Description
	schema feature.Schema
	rows   []feature.Record

	// countOverride, when non-zero, is reported instead of the real row
	// count. Simulates a remote total the download can never reach.
	countOverride int64
	pageLimit     int
	failQueries   int
	// failAfter, when positive, makes every query past the first failAfter
	// successful ones fail.
	failAfter int

	queries int
}

func (f *fakeDataset) Describe(ctx context.Context) (remote.Description, error) {
	return f.desc, nil
}

func (f *fakeDataset) Fields(ctx context.Context) (feature.Schema, error) {
	return f.schema, nil
}

func (f *fakeDataset) Count(ctx context.Context, flt *feature.Filter) (int64, error) {
	if f.countOverride != 0 {
		return f.countOverride, nil
	}
	var n int64
	for _, r := range f.rows {
		if flt.Matches(r) {
			n++
		}
	}
	return n, nil
}

func (f *fakeDataset) Query(ctx context.Context, q remote.Query) ([]feature.Record, error) {
	f.queries++
	if f.failQueries > 0 {
		f.failQueries--
		return nil, errFakeQuery
	}
	if f.failAfter > 0 && f.queries > f.failAfter {
		return nil, errFakeQuery
	}
	var out []feature.Record
	for _, r := range f.rows {
		if q.Filter.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Int(f.desc.OIDField)
		b, _ := out[j].Int(f.desc.OIDField)
		return a < b
	})
	if f.pageLimit > 0 && len(out) > f.pageLimit {
		out = out[:f.pageLimit]
	}
	return out, nil
}
