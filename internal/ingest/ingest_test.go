package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleJSON = `[
  {
    "id": "5vYA1mW9g2Coh1HUFUSmlb",
    "title": "3AM",
    "danceability": 0.521,
    "energy": 0.673,
    "mode": 1,
    "acousticness": 0.0817,
    "tempo": 108.031,
    "duration_ms": 225947,
    "num_sections": 8,
    "num_segments": 826
  },
  {
    "id": 12345,
    "title": "Numeric ID Song",
    "danceability": 0.1,
    "energy": 0.2,
    "mode": 0,
    "acousticness": 0.3,
    "tempo": 90.5,
    "duration_ms": 180000,
    "num_sections": 5,
    "num_segments": 300
  }
]`

func TestReadJSONAndNormalize(t *testing.T) {
	path := writeTempFile(t, "songs.json", sampleJSON)

	records, err := ReadFile(path, FormatJSON)
	require.NoError(t, err)
	require.Len(t, records, 2)

	tracks, err := Normalize(records)
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Equal(t, "5vYA1mW9g2Coh1HUFUSmlb", tracks[0].ID)
	assert.Equal(t, "3AM", tracks[0].Title)
	assert.Equal(t, 0.521, tracks[0].Danceability)
	assert.Equal(t, 1, tracks[0].Mode)
	assert.Equal(t, 225947, tracks[0].DurationMs)

	// Integer ids from JSON arrive as numbers and must survive as strings.
	assert.Equal(t, "12345", tracks[1].ID)
}

func TestReadCSVAndNormalize(t *testing.T) {
	csv := "id,title,danceability,energy,mode,acousticness,tempo,duration_ms,num_sections,num_segments\n" +
		"abc123,Love Story,0.62,0.8,1,0.13,119.0,235266,10,740\n"
	path := writeTempFile(t, "songs.csv", csv)

	records, err := ReadFile(path, FormatCSV)
	require.NoError(t, err)

	tracks, err := Normalize(records)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "abc123", tracks[0].ID)
	assert.Equal(t, "Love Story", tracks[0].Title)
	assert.Equal(t, 0.62, tracks[0].Danceability)
	assert.Equal(t, 235266, tracks[0].DurationMs)
}

func TestNormalizeMissingField(t *testing.T) {
	records := []map[string]any{
		{"id": "a", "title": "No Features"},
	}
	_, err := Normalize(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "danceability")
	assert.Contains(t, err.Error(), "record 0")
}

func TestNormalizeRejectsEmptyID(t *testing.T) {
	records := []map[string]any{
		{
			"id": "", "title": "x", "danceability": 0.1, "energy": 0.1,
			"mode": 1.0, "acousticness": 0.1, "tempo": 100.0,
			"duration_ms": 1000.0, "num_sections": 1.0, "num_segments": 1.0,
		},
	}
	_, err := Normalize(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}

func TestNormalizeBadNumber(t *testing.T) {
	records := []map[string]any{
		{
			"id": "a", "title": "x", "danceability": "fast", "energy": 0.1,
			"mode": 1.0, "acousticness": 0.1, "tempo": 100.0,
			"duration_ms": 1000.0, "num_sections": 1.0, "num_segments": 1.0,
		},
	}
	_, err := Normalize(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "danceability")
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat("data/songs.JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	format, err = DetectFormat("songs.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	_, err = DetectFormat("songs.parquet")
	assert.Error(t, err)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"), FormatJSON)
	assert.Error(t, err)
}
