// Package tabular reads delimited row data (TSV mapping tables, pathway
// class lists) behind a small header-aware API, so callers address columns
// by name instead of hard-coded position.
//
// Grounded on a reference internal/cli/tabular.go TabReader shape,
// adapted to wrap encoding/csv (ragged rows and embedded-delimiter quoting
// are both reachable in real pathway-database exports, which a hand-rolled
// bufio.ReadString('\n')+strings.Split approach cannot handle) instead of
// hand-rolled line splitting.
package tabular

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
)

// Reader is a header-aware delimited reader. The zero value is not usable;
// construct with NewReader.
type Reader struct {
	csv     *csv.Reader
	headers []string
	index   map[string]int
}

// NewReader wraps r as a tab-delimited reader. Rows may have a varying
// number of fields; short rows read as empty strings for missing columns.
func NewReader(r io.Reader) *Reader {
	return NewReaderDelim(r, '\t')
}

// NewReaderDelim is NewReader with an explicit field delimiter, for callers
// reading user-supplied evidence tables whose delimiter depends on file
// extension rather than always being a tab.
func NewReaderDelim(r io.Reader, comma rune) *Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return &Reader{csv: cr}
}

// DelimiterFor picks the field delimiter for a tabular file by extension:
// ".tsv" and ".txt" are tab-delimited, everything else is treated as comma.
func DelimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		return '\t'
	default:
		return ','
	}
}

// ReadHeader reads the first row and records it as the column-name index.
// It must be called (once) before Column, and before Next if the caller
// wants name-based lookups.
func (r *Reader) ReadHeader() ([]string, error) {
	row, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.headers = row
	r.index = make(map[string]int, len(row))
	for i, h := range row {
		key := strings.TrimSpace(h)
		if _, exists := r.index[key]; !exists {
			r.index[key] = i
		}
	}
	return row, nil
}

// Headers returns the header row read by ReadHeader, or nil if it hasn't
// been called.
func (r *Reader) Headers() []string {
	return r.headers
}

// Column returns the 0-based index of a header name, and whether it exists.
func (r *Reader) Column(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Next reads the next data row. It returns io.EOF (wrapped via err) when
// exhausted, matching encoding/csv's convention.
func (r *Reader) Next() ([]string, error) {
	return r.csv.Read()
}

// Field returns row[i] trimmed, or "" if i is out of range — rows shorter
// than the header are treated as having empty trailing cells rather than
// being rejected, since real exports are frequently ragged.
func Field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
