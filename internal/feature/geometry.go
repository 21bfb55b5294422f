// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package feature

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a single coordinate pair (longitude, latitude in WGS84).
type Point struct {
	X float64
	Y float64
}

// Polyline is an ordered vertex sequence forming a line geometry.
type Polyline []Point

// MarshalWKT encodes the point in well-known text.
func (p Point) MarshalWKT() string {
	return fmt.Sprintf("POINT (%s %s)", formatCoord(p.X), formatCoord(p.Y))
}

// MarshalWKT encodes the polyline in well-known text. An empty polyline
// encodes as LINESTRING EMPTY.
func (l Polyline) MarshalWKT() string {
	if len(l) == 0 {
		return "LINESTRING EMPTY"
	}
	parts := make([]string, len(l))
	for i, p := range l {
		parts[i] = formatCoord(p.X) + " " + formatCoord(p.Y)
	}
	return "LINESTRING (" + strings.Join(parts, ", ") + ")"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseWKT decodes a POINT or LINESTRING well-known text value into a Point
// or Polyline. Only the subset this system writes is accepted.
func ParseWKT(s string) (any, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "POINT"):
		body, err := wktBody(s, "POINT")
		if err != nil {
			return nil, err
		}
		pts, err := parseCoordList(body)
		if err != nil {
			return nil, err
		}
		if len(pts) != 1 {
			return nil, fmt.Errorf("point geometry with %d coordinates", len(pts))
		}
		return pts[0], nil
	case strings.HasPrefix(s, "LINESTRING"):
		if strings.Contains(s, "EMPTY") {
			return Polyline{}, nil
		}
		body, err := wktBody(s, "LINESTRING")
		if err != nil {
			return nil, err
		}
		pts, err := parseCoordList(body)
		if err != nil {
			return nil, err
		}
		return Polyline(pts), nil
	default:
		return nil, fmt.Errorf("unsupported geometry text %q", s)
	}
}

func wktBody(s, prefix string) (string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(s, prefix))
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return "", fmt.Errorf("malformed %s geometry %q", prefix, s)
	}
	return rest[1 : len(rest)-1], nil
}

func parseCoordList(body string) ([]Point, error) {
	pairs := strings.Split(body, ",")
	pts := make([]Point, 0, len(pairs))
	for _, pair := range pairs {
		fields := strings.Fields(strings.TrimSpace(pair))
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed coordinate pair %q", pair)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad x coordinate %q: %w", fields[0], err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad y coordinate %q: %w", fields[1], err)
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts, nil
}
