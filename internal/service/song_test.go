package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prachisingh/musicapi/internal/model"
	"github.com/prachisingh/musicapi/pkg/apperr"
)

// fakeStore is an in-memory SongStore with the same lookup semantics as
// the DAO: case-insensitive exact match with lowest-id tie-break,
// case-insensitive substring search with exact matches first.
type fakeStore struct {
	songs    []model.Song
	failWith error
	updates  []model.RatingUpdate
}

func (f *fakeStore) FindExact(_ context.Context, title string) (*model.Song, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var best *model.Song
	for i := range f.songs {
		s := &f.songs[i]
		if strings.EqualFold(s.Title, title) {
			if best == nil || s.ID < best.ID {
				best = s
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("song %q: %w", title, apperr.ErrNotFound)
	}
	cp := *best
	return &cp, nil
}

func (f *fakeStore) Search(_ context.Context, term string, limit, offset int) ([]model.Song, int, error) {
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	lower := strings.ToLower(term)
	var matches []model.Song
	for _, s := range f.songs {
		if strings.Contains(strings.ToLower(s.Title), lower) {
			matches = append(matches, s)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		ei := strings.EqualFold(matches[i].Title, term)
		ej := strings.EqualFold(matches[j].Title, term)
		if ei != ej {
			return ei
		}
		if matches[i].Title != matches[j].Title {
			return matches[i].Title < matches[j].Title
		}
		return matches[i].ID < matches[j].ID
	})
	total := len(matches)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matches[offset:end], total, nil
}

func (f *fakeStore) ResolveUnique(_ context.Context, title string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	var ids []string
	for _, s := range f.songs {
		if strings.EqualFold(s.Title, title) {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("song %q: %w", title, apperr.ErrNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("title %q matches more than one song: %w", title, apperr.ErrAmbiguousTarget)
	}
}

func (f *fakeStore) UpdateRating(_ context.Context, id string, rating float64) (*model.RatingUpdate, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for i := range f.songs {
		if f.songs[i].ID == id {
			r := rating
			f.songs[i].StarRating = &r
			u := model.RatingUpdate{ID: id, Title: f.songs[i].Title, Rating: rating}
			f.updates = append(f.updates, u)
			return &u, nil
		}
	}
	return nil, fmt.Errorf("song id %q: %w", id, apperr.ErrNotFound)
}

func newTestService(t *testing.T, songs ...model.Song) (*SongService, *fakeStore) {
	t.Helper()
	store := &fakeStore{songs: songs}
	return NewSongService(store), store
}

func makeSong(id, title string) model.Song {
	return model.Song{
		ID:           id,
		Title:        title,
		Danceability: 0.484,
		Energy:       0.926,
		Mode:         1,
		Acousticness: 0.0775,
		Tempo:        119.992,
		DurationMs:   218973,
		NumSections:  9,
		NumSegments:  370,
	}
}

// loveCatalog builds n songs whose titles all contain "Love" but none
// equals it, so lookups fall through to the search path.
func loveCatalog(n int) []model.Song {
	songs := make([]model.Song, n)
	for i := range songs {
		songs[i] = makeSong(fmt.Sprintf("id%03d", i), fmt.Sprintf("Love Song %02d", i))
	}
	return songs
}

func TestGetSongExactMatch(t *testing.T) {
	svc, _ := newTestService(t, makeSong("5vYA1mW9g2Coh1HUFUSmlb", "3AM"))

	result, err := svc.GetSong(context.Background(), "3AM", 1, 10)
	require.NoError(t, err)
	require.NotNil(t, result.Exact)
	assert.Nil(t, result.Search)
	assert.Equal(t, "5vYA1mW9g2Coh1HUFUSmlb", result.Exact.Song.ID)
	assert.Equal(t, "3AM", result.Exact.Song.Title)
	assert.False(t, result.Exact.Song.IsRated())
	assert.Equal(t, 3.65, result.Exact.DurationMinutes)
}

func TestGetSongExactMatchIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t, makeSong("a", "3AM"))

	result, err := svc.GetSong(context.Background(), "3am", 1, 10)
	require.NoError(t, err)
	require.NotNil(t, result.Exact)
	assert.Equal(t, "3AM", result.Exact.Song.Title)
}

func TestGetSongExactMatchTieBreaksToLowestID(t *testing.T) {
	svc, _ := newTestService(t,
		makeSong("bbb", "3AM"),
		makeSong("aaa", "3AM"),
	)

	result, err := svc.GetSong(context.Background(), "3AM", 1, 10)
	require.NoError(t, err)
	require.NotNil(t, result.Exact)
	assert.Equal(t, "aaa", result.Exact.Song.ID)
}

func TestGetSongRoundsFeaturesForPresentation(t *testing.T) {
	song := makeSong("a", "3AM")
	song.Danceability = 0.48356
	song.Tempo = 119.99213
	svc, _ := newTestService(t, song)

	result, err := svc.GetSong(context.Background(), "3AM", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.484, result.Exact.Song.Danceability)
	assert.Equal(t, 119.992, result.Exact.Song.Tempo)
}

func TestGetSongTitleValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name  string
		title string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", strings.Repeat("x", 256)},
		{"null byte", "3AM\x00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetSong(context.Background(), tc.title, 1, 10)
			assert.ErrorIs(t, err, apperr.ErrInvalidParameter)
		})
	}
}

func TestGetSongRejectsPageBelowOne(t *testing.T) {
	svc, _ := newTestService(t, makeSong("a", "3AM"))

	for _, page := range []int{0, -1, -100} {
		_, err := svc.GetSong(context.Background(), "3AM", page, 10)
		assert.ErrorIs(t, err, apperr.ErrInvalidParameter, "page=%d", page)
	}
}

func TestGetSongClampsLimit(t *testing.T) {
	svc, _ := newTestService(t, loveCatalog(150)...)

	result, err := svc.GetSong(context.Background(), "Love", 1, 500)
	require.NoError(t, err)
	require.NotNil(t, result.Search)
	assert.Equal(t, 100, result.Search.Page.PerPage)
	assert.Len(t, result.Search.Songs, 100)

	result, err = svc.GetSong(context.Background(), "Love", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Search.Page.PerPage)
	assert.Len(t, result.Search.Songs, 1)
}

func TestGetSongNotFound(t *testing.T) {
	svc, _ := newTestService(t, makeSong("a", "3AM"))

	_, err := svc.GetSong(context.Background(), "Nonexistent", 1, 10)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetSongSearchFirstPage(t *testing.T) {
	svc, _ := newTestService(t, loveCatalog(25)...)

	result, err := svc.GetSong(context.Background(), "Love", 1, 10)
	require.NoError(t, err)
	require.NotNil(t, result.Search)
	assert.Nil(t, result.Exact)

	assert.Len(t, result.Search.Songs, 10)
	assert.Equal(t, "Love", result.Search.SearchTerm)

	page := result.Search.Page
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 25, page.TotalResults)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)
	require.NotNil(t, page.NextPage)
	assert.Equal(t, 2, *page.NextPage)
	assert.Nil(t, page.PrevPage)
}

func TestGetSongSearchLastPage(t *testing.T) {
	svc, _ := newTestService(t, loveCatalog(25)...)

	result, err := svc.GetSong(context.Background(), "Love", 3, 10)
	require.NoError(t, err)
	require.NotNil(t, result.Search)

	assert.Len(t, result.Search.Songs, 5)

	page := result.Search.Page
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)
	assert.Nil(t, page.NextPage)
	require.NotNil(t, page.PrevPage)
	assert.Equal(t, 2, *page.PrevPage)
}

// The union of all pages must equal the full match set with no
// duplicates and no omissions.
func TestGetSongPaginationCoversMatchSet(t *testing.T) {
	catalog := loveCatalog(25)
	svc, _ := newTestService(t, catalog...)

	seen := make(map[string]int)
	page := 1
	for {
		result, err := svc.GetSong(context.Background(), "Love", page, 10)
		require.NoError(t, err)
		require.NotNil(t, result.Search)
		for _, s := range result.Search.Songs {
			seen[s.ID]++
		}
		if !result.Search.Page.HasNext {
			break
		}
		page = *result.Search.Page.NextPage
	}

	assert.Len(t, seen, len(catalog))
	for id, count := range seen {
		assert.Equal(t, 1, count, "song %s returned more than once", id)
	}
}

func TestGetSongPageBeyondMatchesIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, loveCatalog(5)...)

	_, err := svc.GetSong(context.Background(), "Love", 4, 10)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetSongPropagatesStoreFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.failWith = fmt.Errorf("boom: %w", apperr.ErrQueryFailed)

	_, err := svc.GetSong(context.Background(), "3AM", 1, 10)
	assert.ErrorIs(t, err, apperr.ErrQueryFailed)
}

func TestRateSongPersistsAndReadsBack(t *testing.T) {
	svc, store := newTestService(t, makeSong("a", "3AM"))

	for _, rating := range []float64{0, 2.5, 4.5, 5} {
		receipt, err := svc.RateSong(context.Background(), "3AM", rating)
		require.NoError(t, err)
		assert.Equal(t, rating, receipt.Rating)
		assert.Equal(t, "a", receipt.ID)
		assert.Contains(t, receipt.Message, "Successfully updated rating")

		result, err := svc.GetSong(context.Background(), "3AM", 1, 10)
		require.NoError(t, err)
		require.NotNil(t, result.Exact.Song.StarRating)
		assert.Equal(t, rating, *result.Exact.Song.StarRating)
		assert.True(t, result.Exact.Song.IsRated())
	}
	assert.Len(t, store.updates, 4)
}

func TestRateSongRejectsOutOfRange(t *testing.T) {
	svc, store := newTestService(t, makeSong("a", "3AM"))

	for _, rating := range []float64{-0.1, 5.1, 100, math.NaN()} {
		_, err := svc.RateSong(context.Background(), "3AM", rating)
		assert.ErrorIs(t, err, apperr.ErrInvalidRating, "rating=%v", rating)
	}
	assert.Empty(t, store.updates, "invalid ratings must persist nothing")
}

func TestRateSongRoundsToOneDecimal(t *testing.T) {
	svc, _ := newTestService(t, makeSong("a", "3AM"))

	receipt, err := svc.RateSong(context.Background(), "3AM", 4.44)
	require.NoError(t, err)
	assert.Equal(t, 4.4, receipt.Rating)
}

func TestRateSongNotFound(t *testing.T) {
	svc, store := newTestService(t, makeSong("a", "3AM"))

	_, err := svc.RateSong(context.Background(), "Nonexistent", 3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, store.updates)
}

// A title shared by several songs must fail the rating update rather
// than write to all of them.
func TestRateSongAmbiguousTitle(t *testing.T) {
	svc, store := newTestService(t,
		makeSong("a", "3AM"),
		makeSong("b", "3AM"),
	)

	_, err := svc.RateSong(context.Background(), "3AM", 4)
	assert.ErrorIs(t, err, apperr.ErrAmbiguousTarget)
	assert.Empty(t, store.updates)
}

func TestRateSongTrimsTitle(t *testing.T) {
	svc, _ := newTestService(t, makeSong("a", "3AM"))

	receipt, err := svc.RateSong(context.Background(), "  3AM  ", 4)
	require.NoError(t, err)
	assert.Equal(t, "3AM", receipt.Title)
}
