// Package service holds the business rules for song lookup and rating:
// input validation, the exact-then-search lookup flow, pagination math,
// and rating bounds.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/prachisingh/musicapi/internal/model"
	"github.com/prachisingh/musicapi/pkg/apperr"
	"github.com/prachisingh/musicapi/pkg/logger"
)

const (
	maxTitleLength = 255

	// MaxPageSize caps the per-page row count; larger requests clamp
	// down to it rather than failing.
	MaxPageSize = 100

	// DefaultPageSize is used when the client does not send a limit.
	DefaultPageSize = 10
)

// SongStore is the data-access surface the service depends on.
type SongStore interface {
	FindExact(ctx context.Context, title string) (*model.Song, error)
	Search(ctx context.Context, term string, limit, offset int) ([]model.Song, int, error)
	ResolveUnique(ctx context.Context, title string) (string, error)
	UpdateRating(ctx context.Context, id string, rating float64) (*model.RatingUpdate, error)
}

// SongDetail is the single-song result shape, with presentation
// rounding applied.
type SongDetail struct {
	Song            model.Song
	DurationMinutes float64
}

// PageInfo describes the pagination window of a search result.
type PageInfo struct {
	CurrentPage  int
	PerPage      int
	TotalResults int
	TotalPages   int
	HasNext      bool
	HasPrev      bool
	NextPage     *int
	PrevPage     *int
}

// SearchResult is the paginated search result shape.
type SearchResult struct {
	Songs      []model.Song
	SearchTerm string
	Page       PageInfo
}

// SongResult is the outcome of GetSong: exactly one of Exact or Search
// is set.
type SongResult struct {
	Exact  *SongDetail
	Search *SearchResult
}

// RatingReceipt confirms a persisted rating.
type RatingReceipt struct {
	ID      string
	Title   string
	Rating  float64
	Message string
}

// SongService implements the lookup and rating business rules on top of
// a SongStore.
type SongService struct {
	store SongStore
	log   *logger.Logger
}

// NewSongService creates a SongService backed by the given store.
func NewSongService(store SongStore) *SongService {
	return &SongService{store: store, log: logger.GetLogger()}
}

// GetSong looks a title up: an exact match wins and returns the
// single-song shape; otherwise a substring search returns the requested
// page. Fails with apperr.ErrNotFound when both paths come up empty and
// with apperr.ErrInvalidParameter on bad input. A limit outside [1, 100]
// clamps; a page below 1 is rejected.
func (s *SongService) GetSong(ctx context.Context, title string, page, limit int) (*SongResult, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, apperr.NewValidationError("page", "page number must be >= 1")
	}
	limit = clampLimit(limit)

	s.log.Debugf("GetSong title=%q page=%d limit=%d", title, page, limit)

	song, err := s.store.FindExact(ctx, title)
	switch {
	case err == nil:
		return &SongResult{Exact: newSongDetail(song)}, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	offset := (page - 1) * limit
	songs, total, err := s.store.Search(ctx, title, limit, offset)
	if err != nil {
		return nil, err
	}
	if total == 0 || len(songs) == 0 {
		return nil, fmt.Errorf("no songs matching %q: %w", title, apperr.ErrNotFound)
	}

	for i := range songs {
		roundSongFloats(&songs[i])
	}

	totalPages := (total + limit - 1) / limit
	info := PageInfo{
		CurrentPage:  page,
		PerPage:      limit,
		TotalResults: total,
		TotalPages:   totalPages,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
	if info.HasNext {
		next := page + 1
		info.NextPage = &next
	}
	if info.HasPrev {
		prev := page - 1
		info.PrevPage = &prev
	}

	s.log.Infof("Search %q returned %d/%d songs (page %d/%d)",
		title, len(songs), total, page, totalPages)
	return &SongResult{Search: &SearchResult{
		Songs:      songs,
		SearchTerm: title,
		Page:       info,
	}}, nil
}

// RateSong persists a star rating against the unique song with the
// given title. Ratings outside [0, 5] fail with apperr.ErrInvalidRating;
// titles matching several songs fail with apperr.ErrAmbiguousTarget.
// The rating is rounded to one decimal before persisting.
func (s *SongService) RateSong(ctx context.Context, title string, rating float64) (*RatingReceipt, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(rating) || rating < 0 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 0 and 5, got %v: %w",
			rating, apperr.ErrInvalidRating)
	}
	rating = math.Round(rating*10) / 10

	s.log.Infof("Rating %q with %.1f stars", title, rating)

	id, err := s.store.ResolveUnique(ctx, title)
	if err != nil {
		return nil, err
	}

	update, err := s.store.UpdateRating(ctx, id, rating)
	if err != nil {
		return nil, err
	}

	return &RatingReceipt{
		ID:      update.ID,
		Title:   update.Title,
		Rating:  update.Rating,
		Message: fmt.Sprintf("Successfully updated rating to %.1f stars", update.Rating),
	}, nil
}

func normalizeTitle(title string) (string, error) {
	if strings.ContainsRune(title, '\x00') {
		return "", apperr.NewValidationError("title", "song title contains invalid characters")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.NewValidationError("title", "song title cannot be empty")
	}
	if len(title) > maxTitleLength {
		return "", apperr.NewValidationError("title",
			fmt.Sprintf("song title too long (maximum %d characters)", maxTitleLength))
	}
	return title, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func newSongDetail(song *model.Song) *SongDetail {
	s := *song
	roundSongFloats(&s)
	return &SongDetail{
		Song:            s,
		DurationMinutes: round(float64(s.DurationMs)/60000, 2),
	}
}

// roundSongFloats trims audio features to three decimals for response
// presentation.
func roundSongFloats(s *model.Song) {
	s.Danceability = round(s.Danceability, 3)
	s.Energy = round(s.Energy, 3)
	s.Acousticness = round(s.Acousticness, 3)
	s.Tempo = round(s.Tempo, 3)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
