package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Track is a validated dataset record ready for insertion.
type Track struct {
	ID           string
	Title        string
	Danceability float64
	Energy       float64
	Mode         int
	Acousticness float64
	Tempo        float64
	DurationMs   int
	NumSections  int
	NumSegments  int
}

// Normalize converts raw records into Tracks, coercing numeric fields
// and failing on the first record with a missing or malformed column.
func Normalize(records []map[string]any) ([]Track, error) {
	tracks := make([]Track, 0, len(records))
	for i, rec := range records {
		t, err := normalizeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func normalizeRecord(rec map[string]any) (Track, error) {
	var (
		t   Track
		err error
	)
	if t.ID, err = fieldString(rec, "id"); err != nil {
		return t, err
	}
	if t.Title, err = fieldString(rec, "title"); err != nil {
		return t, err
	}
	if t.Danceability, err = fieldFloat(rec, "danceability"); err != nil {
		return t, err
	}
	if t.Energy, err = fieldFloat(rec, "energy"); err != nil {
		return t, err
	}
	if t.Mode, err = fieldInt(rec, "mode"); err != nil {
		return t, err
	}
	if t.Acousticness, err = fieldFloat(rec, "acousticness"); err != nil {
		return t, err
	}
	if t.Tempo, err = fieldFloat(rec, "tempo"); err != nil {
		return t, err
	}
	if t.DurationMs, err = fieldInt(rec, "duration_ms"); err != nil {
		return t, err
	}
	if t.NumSections, err = fieldInt(rec, "num_sections"); err != nil {
		return t, err
	}
	if t.NumSegments, err = fieldInt(rec, "num_segments"); err != nil {
		return t, err
	}
	if t.ID == "" {
		return t, fmt.Errorf("field %q: empty", "id")
	}
	return t, nil
}

func fieldString(rec map[string]any, key string) (string, error) {
	v, ok := rec[key]
	if !ok {
		return "", fmt.Errorf("field %q: missing", key)
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	default:
		return fmt.Sprintf("%v", val), nil
	}
}

func fieldFloat(rec map[string]any, key string) (float64, error) {
	v, ok := rec[key]
	if !ok {
		return 0, fmt.Errorf("field %q: missing", key)
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", key, err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: not a number: %q", key, val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q: unsupported type %T", key, v)
	}
}

func fieldInt(rec map[string]any, key string) (int, error) {
	f, err := fieldFloat(rec, key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
