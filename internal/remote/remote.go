// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package remote defines the surface of a hosted feature service consumed
// by the replication engine, and an HTTP client implementing it.
//
// The engine only ever needs four operations from a remote dataset:
// describe (kind and child layers), row count, field list, and a filtered
// read. Everything else about the service's wire protocol stays behind
// this interface.
package remote

import (
	"context"
	"strings"

	"github.com/geovault/geovault/internal/feature"
)

// Child is one layer or table exposed by a feature service.
type Child struct {
	ID   string
	Name string
	Kind feature.DatasetKind
}

// Description is the result of describing a remote dataset.
type Description struct {
	Kind feature.DatasetKind
	// OIDField is the remote's row-id attribute, monotonically increasing
	// per dataset.
	OIDField string
	// Children is non-empty when the described URL is a service root
	// rather than a single layer.
	Children []Child
}

// Query parameterizes a filtered read.
type Query struct {
	// Fields to return; empty means all fields.
	Fields []string
	// Filter bounds the rows returned; nil means all rows.
	Filter *feature.Filter
	// OrderBy optionally names a field to sort ascending by.
	OrderBy string
}

// Dataset is a queryable remote dataset. Implementations may fail or
// rate-limit mid-transfer; retry policy belongs to the caller.
type Dataset interface {
	Describe(ctx context.Context) (Description, error)
	Fields(ctx context.Context) (feature.Schema, error)
	Count(ctx context.Context, f *feature.Filter) (int64, error)
	Query(ctx context.Context, q Query) ([]feature.Record, error)
}

// Dialer produces a Dataset for a service or layer URL.
type Dialer func(url string) Dataset

// LayerURL joins a service root URL with a child layer id.
func LayerURL(serviceURL, childID string) string {
	return strings.TrimRight(serviceURL, "/") + "/" + childID
}
