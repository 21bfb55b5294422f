// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/geovault/geovault/internal/feature"
	"github.com/geovault/geovault/internal/logging"
)

// ClientOptions configures the HTTP feature-service client.
type ClientOptions struct {
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// RequestsPerSecond paces requests against the service; zero disables
	// pacing.
	RequestsPerSecond float64
	// Burst is the rate limiter burst size.
	Burst int
	// PageSize bounds how many rows one query requests. The service may
	// return fewer; the client pages until the transfer limit flag clears.
	PageSize int
	// Token is an optional access token appended to every request.
	Token string
}

// Client is an HTTP implementation of Dataset against a feature-service
// REST endpoint. Requests are paced by a rate limiter and guarded by a
// circuit breaker so a failing service cannot absorb unbounded calls.
type Client struct {
	url      string
	http     *http.Client
	limiter  *rate.Limiter
	cb       *gobreaker.CircuitBreaker[[]byte]
	pageSize int
	token    string
}

// NewClient creates a client for a feature-service or layer URL.
func NewClient(serviceURL string, opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "feature-service",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &Client{
		url:      serviceURL,
		http:     &http.Client{Timeout: opts.Timeout},
		limiter:  limiter,
		cb:       cb,
		pageSize: opts.PageSize,
		token:    opts.Token,
	}
}

// NewDialer returns a Dialer producing clients that share one option set.
func NewDialer(opts ClientOptions) Dialer {
	return func(serviceURL string) Dataset {
		return NewClient(serviceURL, opts)
	}
}

// fieldInfo is the wire form of a field descriptor.
type fieldInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// childInfo is the wire form of a child layer or table reference.
type childInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// describePayload is the wire form of a describe response. A service root
// carries Layers/Tables; a single layer carries Type and Fields.
type describePayload struct {
	Type          string      `json:"type"`
	ObjectIDField string      `json:"objectIdField"`
	Fields        []fieldInfo `json:"fields"`
	Layers        []childInfo `json:"layers"`
	Tables        []childInfo `json:"tables"`
	Error         *apiError   `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type geometryPayload struct {
	X     *float64       `json:"x"`
	Y     *float64       `json:"y"`
	Paths [][][2]float64 `json:"paths"`
}

type featurePayload struct {
	Attributes map[string]any   `json:"attributes"`
	Geometry   *geometryPayload `json:"geometry"`
}

// queryPayload is the wire form of a query response.
type queryPayload struct {
	Count                 *int64           `json:"count"`
	Fields                []fieldInfo      `json:"fields"`
	Features              []featurePayload `json:"features"`
	ExceededTransferLimit bool             `json:"exceededTransferLimit"`
	Error                 *apiError        `json:"error"`
}

// Describe reports the dataset kind, row-id field, and child datasets.
func (c *Client) Describe(ctx context.Context) (Description, error) {
	body, err := c.get(ctx, "", url.Values{})
	if err != nil {
		return Description{}, err
	}
	var payload describePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Description{}, fmt.Errorf("failed to decode describe response: %w", err)
	}
	if payload.Error != nil {
		return Description{}, fmt.Errorf("describe failed: %s (code %d)", payload.Error.Message, payload.Error.Code)
	}

	desc := Description{
		Kind:     kindFromType(payload.Type),
		OIDField: payload.ObjectIDField,
	}
	if desc.OIDField == "" {
		desc.OIDField = "OBJECTID"
	}
	for _, ch := range payload.Layers {
		desc.Children = append(desc.Children, Child{
			ID:   strconv.Itoa(ch.ID),
			Name: ch.Name,
			Kind: feature.KindFeatureLayer,
		})
	}
	for _, ch := range payload.Tables {
		desc.Children = append(desc.Children, Child{
			ID:   strconv.Itoa(ch.ID),
			Name: ch.Name,
			Kind: feature.KindTable,
		})
	}
	return desc, nil
}

// Fields returns the layer's attribute schema. Feature layers additionally
// carry the geometry attribute under feature.ShapeField.
func (c *Client) Fields(ctx context.Context) (feature.Schema, error) {
	body, err := c.get(ctx, "", url.Values{})
	if err != nil {
		return nil, err
	}
	var payload describePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode field list: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("field list failed: %s (code %d)", payload.Error.Message, payload.Error.Code)
	}

	schema := make(feature.Schema, 0, len(payload.Fields)+1)
	for _, f := range payload.Fields {
		schema = append(schema, feature.Field{Name: f.Name, Type: fieldTypeFromWire(f.Type)})
	}
	if kindFromType(payload.Type) == feature.KindFeatureLayer {
		schema = schema.WithField(feature.Field{Name: feature.ShapeField, Type: feature.TypeGeometry})
	}
	return schema, nil
}

// Count returns the number of rows matching the filter.
func (c *Client) Count(ctx context.Context, f *feature.Filter) (int64, error) {
	params := url.Values{}
	params.Set("where", whereClause(f))
	params.Set("returnCountOnly", "true")

	body, err := c.get(ctx, "/query", params)
	if err != nil {
		return 0, err
	}
	var payload queryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	if payload.Error != nil {
		return 0, fmt.Errorf("count failed: %s (code %d)", payload.Error.Message, payload.Error.Code)
	}
	if payload.Count == nil {
		return 0, fmt.Errorf("count response missing count")
	}
	return *payload.Count, nil
}

// Query reads rows matching the query, paging through the service's
// transfer limit until all matching rows are returned.
func (c *Client) Query(ctx context.Context, q Query) ([]feature.Record, error) {
	var rows []feature.Record
	offset := 0
	for {
		params := url.Values{}
		params.Set("where", whereClause(q.Filter))
		params.Set("outFields", outFields(q.Fields))
		params.Set("resultOffset", strconv.Itoa(offset))
		params.Set("resultRecordCount", strconv.Itoa(c.pageSize))
		if q.OrderBy != "" {
			params.Set("orderByFields", q.OrderBy+" ASC")
		}

		body, err := c.get(ctx, "/query", params)
		if err != nil {
			return nil, err
		}
		var payload queryPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode query response: %w", err)
		}
		if payload.Error != nil {
			return nil, fmt.Errorf("query failed: %s (code %d)", payload.Error.Message, payload.Error.Code)
		}

		types := wireTypes(payload.Fields)
		for _, ft := range payload.Features {
			rows = append(rows, decodeFeature(ft, types))
		}

		if !payload.ExceededTransferLimit || len(payload.Features) == 0 {
			return rows, nil
		}
		offset += len(payload.Features)
	}
}

// get performs one rate-limited, breaker-guarded GET and returns the body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	params.Set("f", "json")
	if c.token != "" {
		params.Set("token", c.token)
	}
	reqURL := c.url + path + "?" + params.Encode()

	return c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", c.url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("request to %s returned status %d", c.url, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
}

// wireTypes indexes response field descriptors by name.
func wireTypes(fields []fieldInfo) map[string]feature.FieldType {
	types := make(map[string]feature.FieldType, len(fields))
	for _, f := range fields {
		types[f.Name] = fieldTypeFromWire(f.Type)
	}
	return types
}

// decodeFeature converts one wire feature into a Record, coercing values
// by declared field type. Dates arrive as epoch milliseconds.
func decodeFeature(ft featurePayload, types map[string]feature.FieldType) feature.Record {
	rec := make(feature.Record, len(ft.Attributes)+1)
	for name, raw := range ft.Attributes {
		if raw == nil {
			rec[name] = nil
			continue
		}
		switch types[name] {
		case feature.TypeDate:
			if ms, ok := raw.(float64); ok {
				rec[name] = time.UnixMilli(int64(ms)).UTC()
			}
		case feature.TypeInteger:
			if n, ok := raw.(float64); ok {
				rec[name] = int64(n)
			}
		case feature.TypeDouble:
			if n, ok := raw.(float64); ok {
				rec[name] = n
			}
		default:
			if s, ok := raw.(string); ok {
				rec[name] = s
			}
		}
	}
	if ft.Geometry != nil {
		rec[feature.ShapeField] = decodeGeometry(ft.Geometry)
	}
	return rec
}

func decodeGeometry(g *geometryPayload) any {
	if g.X != nil && g.Y != nil {
		return feature.Point{X: *g.X, Y: *g.Y}
	}
	if len(g.Paths) > 0 {
		line := make(feature.Polyline, 0, len(g.Paths[0]))
		for _, v := range g.Paths[0] {
			line = append(line, feature.Point{X: v[0], Y: v[1]})
		}
		return line
	}
	return nil
}

func outFields(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	out := fields[0]
	for _, f := range fields[1:] {
		out += "," + f
	}
	return out
}

func kindFromType(t string) feature.DatasetKind {
	if t == "Table" {
		return feature.KindTable
	}
	return feature.KindFeatureLayer
}

// fieldTypeFromWire maps wire field type names to FieldType.
func fieldTypeFromWire(t string) feature.FieldType {
	switch t {
	case "esriFieldTypeOID", "esriFieldTypeInteger", "esriFieldTypeSmallInteger":
		return feature.TypeInteger
	case "esriFieldTypeDouble", "esriFieldTypeSingle":
		return feature.TypeDouble
	case "esriFieldTypeDate":
		return feature.TypeDate
	case "esriFieldTypeGeometry":
		return feature.TypeGeometry
	default:
		return feature.TypeString
	}
}
