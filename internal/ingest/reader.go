// Package ingest loads the song dataset into the music_data table:
// read a JSON or CSV export, normalize each record into a fixed-shape
// track, and batch-insert with conflict skipping so re-runs are safe.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a supported dataset file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// DetectFormat infers the dataset format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("cannot detect format of %q: use --format", path)
	}
}

// ReadFile reads a dataset file into raw records keyed by column name.
func ReadFile(path string, format Format) ([]map[string]any, error) {
	switch format {
	case FormatJSON:
		return readJSON(path)
	case FormatCSV:
		return readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// readJSON reads a JSON array of song objects. Numbers are decoded as
// json.Number so integer ids survive untouched.
func readJSON(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// readCSV reads a CSV file whose first row is the header.
func readCSV(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	header := rows[0]
	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
