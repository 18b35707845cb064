// Package csvio reads and writes the delimited exports consumed and produced by a
// reconciliation run.
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

var ErrNoHeader = errors.New("csvio: empty file, no header row")

// Warning is a non-fatal issue found while reading a file.
type Warning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Table is a fully loaded file: rows are addressed by header name.
type Table struct {
	Header   []string
	Rows     []map[string]string
	Warnings []Warning
	Encoding string
}

// ReadFile loads path into a Table.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csvio: open %s", path)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "csvio: parse %s", path)
	}
	return t, nil
}

// Read loads everything from r into a Table.
func Read(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "csvio: read")
	}
	return Parse(data)
}

// Parse decodes data and reads it into a Table.
//
// Rows with fewer fields than the header are padded with empty values, longer rows
// are truncated and unparseable rows are skipped; each case adds a Warning.
// A header without data rows is a valid, empty table.
func Parse(data []byte) (*Table, error) {
	decoded, enc, err := Decode(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, eris.Wrap(err, "csvio: read header")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := &Table{Header: header, Rows: []map[string]string{}, Encoding: enc}
	n := len(header)
	rowNum := 1 // header is row 1

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			t.Warnings = append(t.Warnings, Warning{Row: rowNum, Message: fmt.Sprintf("parse error: %v", err)})
			continue
		}

		switch {
		case len(rec) < n:
			t.Warnings = append(t.Warnings, Warning{Row: rowNum, Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(rec), n)})
			padded := make([]string, n)
			copy(padded, rec)
			rec = padded
		case len(rec) > n:
			t.Warnings = append(t.Warnings, Warning{Row: rowNum, Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(rec), n)})
			rec = rec[:n]
		}

		row := make(map[string]string, n)
		for i, h := range header {
			row[h] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
