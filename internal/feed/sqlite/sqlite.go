// Package sqlite streams a Pine program's input rows out of a
// modernc.org/sqlite-backed bars table, ordered by its time column. The
// pure-Go driver needs no cgo and registers itself under database/sql via
// its package-level init() side effect.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kaigouthro/pine-lang/internal/config"
	"github.com/kaigouthro/pine-lang/internal/library"
)

// Feed streams rows from one table, one call to Next per row, ordered by
// the configured time column ascending.
type Feed struct {
	db      *sql.DB
	rows    *sql.Rows
	cols    []string
	columns map[string]config.ColumnSpec
}

// Open connects to the database at path and begins a streaming SELECT over
// table, ordered by timeCol. columns declares the expected kind of each
// selected column.
func Open(spec *config.SqliteFeedSpec, columns []config.ColumnSpec) (*Feed, error) {
	db, err := sql.Open("sqlite", spec.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite feed %s: %w", spec.Path, err)
	}

	byName := make(map[string]config.ColumnSpec, len(columns))
	names := make([]string, len(columns))
	for i, c := range columns {
		byName[c.Name] = c
		names[i] = c.Name
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC", joinQuoted(names), spec.Table, spec.TimeCol)
	rows, err := db.Query(query)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("querying sqlite feed: %w", err)
	}

	return &Feed{db: db, rows: rows, cols: names, columns: byName}, nil
}

func joinQuoted(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += `"` + n + `"`
	}
	return out
}

// Close releases the underlying cursor and connection.
func (fd *Feed) Close() error {
	fd.rows.Close()
	return fd.db.Close()
}

// Next reads the next row, returning (nil, sql.ErrNoRows) once the cursor
// is exhausted.
func (fd *Feed) Next() (map[string]library.Value, error) {
	if !fd.rows.Next() {
		if err := fd.rows.Err(); err != nil {
			return nil, fmt.Errorf("reading sqlite row: %w", err)
		}
		return nil, sql.ErrNoRows
	}

	dest := make([]interface{}, len(fd.cols))
	ptrs := make([]interface{}, len(fd.cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := fd.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning sqlite row: %w", err)
	}

	row := make(map[string]library.Value, len(fd.cols))
	for i, name := range fd.cols {
		row[name] = fd.convert(name, dest[i])
	}
	return row, nil
}

func (fd *Feed) convert(name string, raw interface{}) library.Value {
	col := fd.columns[name]
	if raw == nil {
		return library.Na(col.ColumnKind())
	}
	switch col.Kind {
	case "float", "Float":
		switch v := raw.(type) {
		case float64:
			return library.Float(v)
		case int64:
			return library.Float(float64(v))
		}
	case "int", "Int":
		if v, ok := raw.(int64); ok {
			return library.Int(v)
		}
	case "bool", "Bool":
		switch v := raw.(type) {
		case int64:
			return library.Bool(v != 0)
		case bool:
			return library.Bool(v)
		}
	case "color", "Color":
		if v, ok := raw.(string); ok {
			return library.Color(v)
		}
	}
	if v, ok := raw.(string); ok {
		return library.String(v)
	}
	return library.Na(col.ColumnKind())
}
