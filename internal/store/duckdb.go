// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/geovault/geovault/internal/feature"
)

// DuckDBOptions tunes the DuckDB connection.
type DuckDBOptions struct {
	MaxMemory              string
	Threads                int // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool
}

// DuckDB is the production Store implementation: one DuckDB database file
// per backup store, one table per dataset. Dataset kinds and field types
// are tracked in two metadata tables because SQL column types alone cannot
// distinguish geometry text from plain strings.
type DuckDB struct {
	path string
	db   *sql.DB
}

const (
	metaDatasets = "geovault_datasets"
	metaFields   = "geovault_fields"
)

// OpenDuckDB opens (creating if absent) a DuckDB store at path.
func OpenDuckDB(path string, opts DuckDBOptions) (*DuckDB, error) {
	numThreads := opts.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	maxMemory := opts.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	// Ensure the parent directory exists for the database file.
	dbDir := filepath.Dir(path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create store directory %s: %w", dbDir, err)
		}
	}

	preserveOrder := "true"
	if !opts.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s",
		path, numThreads, maxMemory, preserveOrder)

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to store %s: %w", path, err)
	}

	s := &DuckDB{path: path, db: db}
	if err := s.initMetadata(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DuckDB) initMetadata() error {
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (name VARCHAR PRIMARY KEY, kind VARCHAR)", metaDatasets),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (dataset VARCHAR, name VARCHAR, ftype VARCHAR, ordinal INTEGER)", metaFields),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize store metadata: %w", err)
		}
	}
	return nil
}

// Path identifies the store location.
func (s *DuckDB) Path() string { return s.path }

// List returns all dataset names, sorted.
func (s *DuckDB) List() ([]string, error) {
	rows, err := s.db.Query(fmt.Sprintf("SELECT name FROM %s ORDER BY name", metaDatasets))
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Has reports whether the named dataset exists.
func (s *DuckDB) Has(name string) (bool, error) {
	var n int
	err := s.db.QueryRow(fmt.Sprintf("SELECT count(*) FROM %s WHERE name = ?", metaDatasets), name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Kind returns the dataset kind.
func (s *DuckDB) Kind(name string) (feature.DatasetKind, error) {
	var kind string
	err := s.db.QueryRow(fmt.Sprintf("SELECT kind FROM %s WHERE name = ?", metaDatasets), name).Scan(&kind)
	if err == sql.ErrNoRows {
		return 0, noDataset(name)
	}
	if err != nil {
		return 0, err
	}
	if kind == feature.KindFeatureLayer.String() {
		return feature.KindFeatureLayer, nil
	}
	return feature.KindTable, nil
}

// Schema returns the dataset's ordered field list.
func (s *DuckDB) Schema(name string) (feature.Schema, error) {
	if err := s.mustExist(name); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT name, ftype FROM %s WHERE dataset = ? ORDER BY ordinal", metaFields), name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var schema feature.Schema
	for rows.Next() {
		var fname, ftype string
		if err := rows.Scan(&fname, &ftype); err != nil {
			return nil, err
		}
		schema = append(schema, feature.Field{Name: fname, Type: fieldTypeFromMeta(ftype)})
	}
	return schema, rows.Err()
}

// Create adds an empty dataset table and records its metadata.
func (s *DuckDB) Create(name string, kind feature.DatasetKind, schema feature.Schema) error {
	exists, err := s.Has(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDatasetExists, name)
	}

	cols := make([]string, len(schema))
	for i, fld := range schema {
		cols[i] = quoteIdent(fld.Name) + " " + sqlType(fld.Type)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(cols, ", "))); err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", name, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("INSERT INTO %s VALUES (?, ?)", metaDatasets), name, kind.String()); err != nil {
		return err
	}
	for i, fld := range schema {
		if _, err := tx.Exec(fmt.Sprintf("INSERT INTO %s VALUES (?, ?, ?, ?)", metaFields),
			name, fld.Name, fld.Type.String(), i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Drop removes datasets and their metadata.
func (s *DuckDB) Drop(names ...string) error {
	for _, name := range names {
		if err := s.mustExist(name); err != nil {
			return err
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(name)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to drop dataset %s: %w", name, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE name = ?", metaDatasets), name); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE dataset = ?", metaFields), name); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Copy duplicates src into dst, replacing dst if it exists.
func (s *DuckDB) Copy(src, dst string) error {
	if err := s.mustExist(src); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s",
		quoteIdent(dst), quoteIdent(src))); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE name = ?", metaDatasets), dst); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE dataset = ?", metaFields), dst); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("INSERT INTO %s SELECT ?, kind FROM %s WHERE name = ?", metaDatasets, metaDatasets),
		dst, src); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("INSERT INTO %s SELECT ?, name, ftype, ordinal FROM %s WHERE dataset = ?", metaFields, metaFields),
		dst, src); err != nil {
		return err
	}
	return tx.Commit()
}

// Count returns the number of rows matching the filter.
func (s *DuckDB) Count(name string, f *feature.Filter) (int64, error) {
	if err := s.mustExist(name); err != nil {
		return 0, err
	}
	where, args := whereSQL(f)
	var n int64
	err := s.db.QueryRow("SELECT count(*) FROM "+quoteIdent(name)+where, args...).Scan(&n)
	return n, err
}

// Read returns matching rows restricted to the given fields.
func (s *DuckDB) Read(name string, fields []string, f *feature.Filter) ([]feature.Record, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = schema.Names()
	}
	cols := make([]string, len(fields))
	types := make([]feature.FieldType, len(fields))
	for i, fld := range fields {
		def, ok := schema.Lookup(fld)
		if !ok {
			return nil, fmt.Errorf("field %s not found on %s", fld, name)
		}
		cols[i] = quoteIdent(fld)
		types[i] = def.Type
	}

	where, args := whereSQL(f)
	rows, err := s.db.Query("SELECT "+strings.Join(cols, ", ")+" FROM "+quoteIdent(name)+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer rows.Close()

	var out []feature.Record
	for rows.Next() {
		holders := make([]any, len(fields))
		for i, t := range types {
			holders[i] = scanHolder(t)
		}
		if err := rows.Scan(holders...); err != nil {
			return nil, err
		}
		rec := make(feature.Record, len(fields))
		for i, fld := range fields {
			v, err := holderValue(holders[i], types[i])
			if err != nil {
				return nil, fmt.Errorf("field %s on %s: %w", fld, name, err)
			}
			rec[fld] = v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Append bulk-adds rows through the mapping inside one transaction.
func (s *DuckDB) Append(name string, rows []feature.Record, mapping feature.FieldMapping) error {
	schema, err := s.Schema(name)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	cols := make([]string, len(schema))
	placeholders := make([]string, len(schema))
	for i, fld := range schema {
		cols[i] = quoteIdent(fld.Name)
		placeholders[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name), strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	prepared, err := tx.Prepare(stmt)
	if err != nil {
		return err
	}
	defer prepared.Close()

	for _, r := range rows {
		mapped := mapping.Apply(r)
		args := make([]any, len(schema))
		for i, fld := range schema {
			args[i] = sqlValue(mapped[fld.Name])
		}
		if _, err := prepared.Exec(args...); err != nil {
			return fmt.Errorf("failed to append to %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Update sets field values on every matching row.
func (s *DuckDB) Update(name string, f *feature.Filter, set map[string]any) error {
	schema, err := s.Schema(name)
	if err != nil {
		return err
	}
	var assigns []string
	var args []any
	for _, fld := range schema {
		v, ok := set[fld.Name]
		if !ok {
			continue
		}
		assigns = append(assigns, quoteIdent(fld.Name)+" = ?")
		args = append(args, sqlValue(v))
	}
	if len(assigns) == 0 {
		return nil
	}
	where, whereArgs := whereSQL(f)
	args = append(args, whereArgs...)
	_, err = s.db.Exec("UPDATE "+quoteIdent(name)+" SET "+strings.Join(assigns, ", ")+where, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", name, err)
	}
	return nil
}

// AddField appends a field to the dataset.
func (s *DuckDB) AddField(name string, fld feature.Field) error {
	schema, err := s.Schema(name)
	if err != nil {
		return err
	}
	if schema.Has(fld.Name) {
		return fmt.Errorf("field %s already exists on %s", fld.Name, name)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		quoteIdent(name), quoteIdent(fld.Name), sqlType(fld.Type))); err != nil {
		return fmt.Errorf("failed to add field %s to %s: %w", fld.Name, name, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("INSERT INTO %s VALUES (?, ?, ?, ?)", metaFields),
		name, fld.Name, fld.Type.String(), len(schema)); err != nil {
		return err
	}
	return tx.Commit()
}

// AlterFieldName renames a field, preserving values.
func (s *DuckDB) AlterFieldName(name, oldName, newName string) error {
	schema, err := s.Schema(name)
	if err != nil {
		return err
	}
	if !schema.Has(oldName) {
		return fmt.Errorf("field %s not found on %s", oldName, name)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		quoteIdent(name), quoteIdent(oldName), quoteIdent(newName))); err != nil {
		return fmt.Errorf("failed to rename field %s on %s: %w", oldName, name, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET name = ? WHERE dataset = ? AND name = ?", metaFields),
		newName, name, oldName); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteFields removes fields and their values. Unknown names are ignored.
func (s *DuckDB) DeleteFields(name string, fields []string) error {
	schema, err := s.Schema(name)
	if err != nil {
		return err
	}
	for _, fld := range fields {
		if !schema.Has(fld) {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
			quoteIdent(name), quoteIdent(fld))); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to delete field %s from %s: %w", fld, name, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE dataset = ? AND name = ?", metaFields),
			name, fld); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// MaxInt returns the maximum value of an integer field.
func (s *DuckDB) MaxInt(name, field string) (int64, bool, error) {
	if err := s.mustExist(name); err != nil {
		return 0, false, err
	}
	var v sql.NullInt64
	err := s.db.QueryRow("SELECT max(" + quoteIdent(field) + ") FROM " + quoteIdent(name)).Scan(&v)
	if err != nil {
		return 0, false, err
	}
	return v.Int64, v.Valid, nil
}

// MaxTime returns the maximum value of a date field.
func (s *DuckDB) MaxTime(name, field string) (time.Time, bool, error) {
	if err := s.mustExist(name); err != nil {
		return time.Time{}, false, err
	}
	var v sql.NullTime
	err := s.db.QueryRow("SELECT max(" + quoteIdent(field) + ") FROM " + quoteIdent(name)).Scan(&v)
	if err != nil {
		return time.Time{}, false, err
	}
	return v.Time.UTC(), v.Valid, nil
}

// Close releases the database connection.
func (s *DuckDB) Close() error { return s.db.Close() }

func (s *DuckDB) mustExist(name string) error {
	exists, err := s.Has(name)
	if err != nil {
		return err
	}
	if !exists {
		return noDataset(name)
	}
	return nil
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqlType maps a field type to its DuckDB column type. Geometry is stored
// as well-known text.
func sqlType(t feature.FieldType) string {
	switch t {
	case feature.TypeInteger:
		return "BIGINT"
	case feature.TypeDouble:
		return "DOUBLE"
	case feature.TypeDate:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func fieldTypeFromMeta(s string) feature.FieldType {
	switch s {
	case "integer":
		return feature.TypeInteger
	case "double":
		return feature.TypeDouble
	case "date":
		return feature.TypeDate
	case "geometry":
		return feature.TypeGeometry
	default:
		return feature.TypeString
	}
}

// sqlValue converts a record value for binding. Geometry encodes as WKT.
func sqlValue(v any) any {
	switch g := v.(type) {
	case feature.Point:
		return g.MarshalWKT()
	case feature.Polyline:
		return g.MarshalWKT()
	default:
		return v
	}
}

func scanHolder(t feature.FieldType) any {
	switch t {
	case feature.TypeInteger:
		return &sql.NullInt64{}
	case feature.TypeDouble:
		return &sql.NullFloat64{}
	case feature.TypeDate:
		return &sql.NullTime{}
	default:
		return &sql.NullString{}
	}
}

func holderValue(holder any, t feature.FieldType) (any, error) {
	switch h := holder.(type) {
	case *sql.NullInt64:
		if !h.Valid {
			return nil, nil
		}
		return h.Int64, nil
	case *sql.NullFloat64:
		if !h.Valid {
			return nil, nil
		}
		return h.Float64, nil
	case *sql.NullTime:
		if !h.Valid {
			return nil, nil
		}
		return h.Time.UTC(), nil
	case *sql.NullString:
		if !h.Valid {
			return nil, nil
		}
		if t == feature.TypeGeometry {
			return feature.ParseWKT(h.String)
		}
		return h.String, nil
	default:
		return nil, fmt.Errorf("unsupported scan holder %T", holder)
	}
}

// whereSQL renders a typed filter as a parameterized WHERE clause. A nil
// filter renders as no clause.
func whereSQL(f *feature.Filter) (string, []any) {
	if f == nil {
		return "", nil
	}
	if f.Op == feature.OpIsNull {
		return " WHERE " + quoteIdent(f.Field) + " IS NULL", nil
	}
	op := map[feature.Op]string{
		feature.OpEq:  "=",
		feature.OpGT:  ">",
		feature.OpGTE: ">=",
	}[f.Op]
	return " WHERE " + quoteIdent(f.Field) + " " + op + " ?", []any{sqlValue(f.Value)}
}
