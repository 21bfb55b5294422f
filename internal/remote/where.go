// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package remote

import (
	"fmt"
	"strings"
	"time"

	"github.com/geovault/geovault/internal/feature"
)

// whereClause renders a typed filter as a feature-service where string.
// A nil filter selects all rows.
func whereClause(f *feature.Filter) string {
	if f == nil {
		return "1=1"
	}
	if f.Op == feature.OpIsNull {
		return f.Field + " IS NULL"
	}
	op := map[feature.Op]string{
		feature.OpEq:  "=",
		feature.OpGT:  ">",
		feature.OpGTE: ">=",
	}[f.Op]
	return fmt.Sprintf("%s %s %s", f.Field, op, literal(f.Value))
}

// literal renders a filter value. Timestamps use the service's TIMESTAMP
// literal syntax in UTC.
func literal(v any) string {
	switch val := v.(type) {
	case time.Time:
		return "TIMESTAMP '" + val.UTC().Format("2006-01-02 15:04:05") + "'"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case int64:
		return fmt.Sprintf("%d", val)
	case int:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
