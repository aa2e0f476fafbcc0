package model

import "time"

// Song is the fixed-shape record for a row of the music_data table.
// Rows are created by the ingestion path and never deleted; the only
// mutable column is StarRating.
type Song struct {
	Index        int
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
	StarRating   *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsRated reports whether the song has been given a star rating.
func (s *Song) IsRated() bool {
	return s.StarRating != nil
}

// RatingUpdate is the row returned by a rating write.
type RatingUpdate struct {
	ID     string
	Title  string
	Rating float64
}
