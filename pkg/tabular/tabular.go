// Package tabular reads header-keyed rows from CSV and XLSX uploads
package tabular

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, use .csv or .xlsx")
	ErrEmptyFile         = errors.New("file has no data rows")
)

// Row is one data line keyed by lower-cased header name
type Row struct {
	Number int // 1-based record number, the header is record 1
	values map[string]string
}

// Get returns the trimmed cell under header, or "" when absent
func (r Row) Get(header string) string {
	return r.values[strings.ToLower(header)]
}

// Missing lists required headers with empty cells in this row
func (r Row) Missing(required ...string) []string {
	var out []string
	for _, h := range required {
		if r.Get(h) == "" {
			out = append(out, h)
		}
	}
	return out
}

// Read parses rows from r, picking the decoder from filename's extension.
// required headers must all be present in the header row.
func Read(filename string, r io.Reader, required ...string) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return toRows(records, required)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read xlsx")
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}
	return rows, nil
}

func toRows(records [][]string, required []string) ([]Row, error) {
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(records[0]))
	present := make(map[string]bool, len(header))
	for i, h := range records[0] {
		// strip a UTF-8 BOM left by spreadsheet exports
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		header[i] = h
		present[h] = true
	}
	var missing []string
	for _, h := range required {
		if !present[strings.ToLower(h)] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		values := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(rec) {
				values[h] = strings.TrimSpace(rec[j])
			}
		}
		rows = append(rows, Row{Number: i + 2, values: values})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
