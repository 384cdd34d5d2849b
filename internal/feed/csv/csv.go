// Package csv reads a Pine program's input rows from a CSV file whose
// header row names the declared input columns, one row per step.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kaigouthro/pine-lang/internal/config"
	"github.com/kaigouthro/pine-lang/internal/library"
)

// Feed reads successive rows from a CSV file, converting each field to the
// library.Value its column's declared kind expects.
type Feed struct {
	r       *csv.Reader
	f       *os.File
	header  []string
	columns map[string]config.ColumnSpec
}

// Open opens path and reads its header row. columns declares the expected
// kind of every named column; a header field with no matching ColumnSpec is
// carried through as a String column.
func Open(path string, columns []config.ColumnSpec) (*Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv feed %s: %w", path, err)
	}
	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading csv header %s: %w", path, err)
	}

	byName := make(map[string]config.ColumnSpec, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}
	return &Feed{r: r, f: f, header: header, columns: byName}, nil
}

// Close releases the underlying file handle.
func (fd *Feed) Close() error { return fd.f.Close() }

// Next reads the next row. It returns (nil, io.EOF) once the file is
// exhausted, matching encoding/csv's own sentinel so callers can loop with
// `for { row, err := fd.Next(); if err == io.EOF { break } }`.
func (fd *Feed) Next() (map[string]library.Value, error) {
	record, err := fd.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv row: %w", err)
	}

	row := make(map[string]library.Value, len(fd.header))
	for i, name := range fd.header {
		if i >= len(record) {
			continue
		}
		row[name] = fd.convert(name, record[i])
	}
	return row, nil
}

func (fd *Feed) convert(name, field string) library.Value {
	col, known := fd.columns[name]
	kind := "string"
	if known {
		kind = col.Kind
	}
	if field == "" || field == "na" || field == "NA" {
		return library.Na(col.ColumnKind())
	}
	switch kind {
	case "float", "Float":
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return library.Na(col.ColumnKind())
		}
		return library.Float(f)
	case "int", "Int":
		i, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return library.Na(col.ColumnKind())
		}
		return library.Int(i)
	case "bool", "Bool":
		b, err := strconv.ParseBool(field)
		if err != nil {
			return library.Na(col.ColumnKind())
		}
		return library.Bool(b)
	case "color", "Color":
		return library.Color(field)
	default:
		return library.String(field)
	}
}
