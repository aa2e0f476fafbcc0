package server

import (
	"time"

	"github.com/prachisingh/musicapi/internal/model"
	"github.com/prachisingh/musicapi/internal/service"
)

// Response is the uniform envelope returned by every API route.
// Technical detail goes into Error only for 500s; client-facing
// failures use Message.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SongDTO is the full single-song shape for exact-match responses.
type SongDTO struct {
	Index           int      `json:"index_col"`
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Danceability    float64  `json:"danceability"`
	Energy          float64  `json:"energy"`
	Mode            int      `json:"mode"`
	Acousticness    float64  `json:"acousticness"`
	Tempo           float64  `json:"tempo"`
	DurationMs      int      `json:"duration_ms"`
	NumSections     int      `json:"num_sections"`
	NumSegments     int      `json:"num_segments"`
	StarRating      *float64 `json:"star_rating"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	IsRated         bool     `json:"is_rated"`
	DurationMinutes float64  `json:"duration_minutes"`
}

func newSongDTO(d *service.SongDetail) SongDTO {
	s := d.Song
	return SongDTO{
		Index:           s.Index,
		ID:              s.ID,
		Title:           s.Title,
		Danceability:    s.Danceability,
		Energy:          s.Energy,
		Mode:            s.Mode,
		Acousticness:    s.Acousticness,
		Tempo:           s.Tempo,
		DurationMs:      s.DurationMs,
		NumSections:     s.NumSections,
		NumSegments:     s.NumSegments,
		StarRating:      s.StarRating,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.Format(time.RFC3339),
		IsRated:         s.IsRated(),
		DurationMinutes: d.DurationMinutes,
	}
}

// PageSongDTO is the per-row shape inside paginated search results.
type PageSongDTO struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	StarRating   *float64 `json:"star_rating"`
	Danceability float64  `json:"danceability"`
	Energy       float64  `json:"energy"`
	Mode         int      `json:"mode"`
	Acousticness float64  `json:"acousticness"`
	Tempo        float64  `json:"tempo"`
	DurationMs   int      `json:"duration_ms"`
	IsRated      bool     `json:"is_rated"`
}

func newPageSongDTO(s model.Song) PageSongDTO {
	return PageSongDTO{
		ID:           s.ID,
		Title:        s.Title,
		StarRating:   s.StarRating,
		Danceability: s.Danceability,
		Energy:       s.Energy,
		Mode:         s.Mode,
		Acousticness: s.Acousticness,
		Tempo:        s.Tempo,
		DurationMs:   s.DurationMs,
		IsRated:      s.IsRated(),
	}
}

// PaginationDTO mirrors service.PageInfo on the wire.
type PaginationDTO struct {
	CurrentPage  int  `json:"current_page"`
	PerPage      int  `json:"per_page"`
	TotalResults int  `json:"total_results"`
	TotalPages   int  `json:"total_pages"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
	NextPage     *int `json:"next_page"`
	PrevPage     *int `json:"prev_page"`
}

// SearchResultDTO is the paginated-search data payload.
type SearchResultDTO struct {
	Songs      []PageSongDTO `json:"songs"`
	SearchTerm string        `json:"search_term"`
	Pagination PaginationDTO `json:"pagination"`
}

func newSearchResultDTO(r *service.SearchResult) SearchResultDTO {
	songs := make([]PageSongDTO, len(r.Songs))
	for i, s := range r.Songs {
		songs[i] = newPageSongDTO(s)
	}
	return SearchResultDTO{
		Songs:      songs,
		SearchTerm: r.SearchTerm,
		Pagination: PaginationDTO{
			CurrentPage:  r.Page.CurrentPage,
			PerPage:      r.Page.PerPage,
			TotalResults: r.Page.TotalResults,
			TotalPages:   r.Page.TotalPages,
			HasNext:      r.Page.HasNext,
			HasPrev:      r.Page.HasPrev,
			NextPage:     r.Page.NextPage,
			PrevPage:     r.Page.PrevPage,
		},
	}
}

// RateRequest is the body of POST /api/song/{title}/rate. Rating is a
// pointer so a missing field is distinguishable from zero.
type RateRequest struct {
	Rating *float64 `json:"rating"`
}

// RatingDTO confirms a persisted rating.
type RatingDTO struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Rating  float64 `json:"rating"`
	Message string  `json:"message"`
}

// HealthResponse is the static liveness payload; it is produced without
// touching the database.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
