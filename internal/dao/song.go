// Package dao issues the SQL for the music_data table and maps rows to
// model records. Each operation leases a pooled connection for its own
// duration and retries exactly once if the connection drops mid-query.
package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prachisingh/musicapi/internal/db"
	"github.com/prachisingh/musicapi/internal/model"
	"github.com/prachisingh/musicapi/pkg/apperr"
	"github.com/prachisingh/musicapi/pkg/logger"
)

const songColumns = `index_col, id, title, danceability, energy, mode, acousticness,
	       tempo, duration_ms, num_sections, num_segments, star_rating,
	       created_at, updated_at`

// SongDAO reads and updates songs through the connection pool.
type SongDAO struct {
	pool *db.Pool
	log  *logger.Logger
}

// NewSongDAO creates a SongDAO backed by the given pool.
func NewSongDAO(pool *db.Pool) *SongDAO {
	return &SongDAO{pool: pool, log: logger.GetLogger()}
}

// withConn runs fn on a leased connection. If the connection is lost
// mid-statement the lease is discarded and fn is retried once on a
// fresh connection.
func (d *SongDAO) withConn(ctx context.Context, fn func(*db.Conn) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		conn, err := d.pool.Acquire(ctx)
		if err != nil {
			return err
		}
		err = fn(conn)
		conn.Release()
		if err == nil || !errors.Is(err, apperr.ErrConnectionLost) {
			return err
		}
		lastErr = err
		d.log.Warnf("Connection lost during query, retrying once: %v", err)
	}
	return lastErr
}

// FindExact returns the song whose title equals the given one, ignoring
// case. Titles are not unique, so ties break to the lowest id for
// determinism. Fails with apperr.ErrNotFound when nothing matches.
func (d *SongDAO) FindExact(ctx context.Context, title string) (*model.Song, error) {
	query := `
		SELECT ` + songColumns + `
		FROM music_data
		WHERE LOWER(title) = LOWER($1)
		ORDER BY id
		LIMIT 1;`

	var song model.Song
	err := d.withConn(ctx, func(conn *db.Conn) error {
		return conn.QueryRow(ctx, query, title).Scan(
			&song.Index, &song.ID, &song.Title, &song.Danceability,
			&song.Energy, &song.Mode, &song.Acousticness, &song.Tempo,
			&song.DurationMs, &song.NumSections, &song.NumSegments,
			&song.StarRating, &song.CreatedAt, &song.UpdatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			d.log.Debugf("No exact match for title %q", title)
			return nil, fmt.Errorf("song %q: %w", title, apperr.ErrNotFound)
		}
		return nil, &apperr.QueryError{Op: "find song by title", Err: err}
	}
	d.log.Debugf("Exact match for title %q: id=%s", title, song.ID)
	return &song, nil
}

// Search returns songs whose title contains term (case-insensitive),
// exact matches first, plus the size of the full match set. The total
// counts all matches, not just the returned page.
func (d *SongDAO) Search(ctx context.Context, term string, limit, offset int) ([]model.Song, int, error) {
	query := `
		SELECT id, title, star_rating, danceability, energy, mode,
		       acousticness, tempo, duration_ms
		FROM music_data
		WHERE LOWER(title) LIKE LOWER($1)
		ORDER BY
		    CASE WHEN LOWER(title) = LOWER($2) THEN 0 ELSE 1 END,
		    title, id
		LIMIT $3 OFFSET $4;`
	countQuery := `
		SELECT COUNT(*)
		FROM music_data
		WHERE LOWER(title) LIKE LOWER($1);`

	pattern := "%" + term + "%"

	var (
		songs []model.Song
		total int
	)
	err := d.withConn(ctx, func(conn *db.Conn) error {
		rows, err := conn.Query(ctx, query, pattern, term, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		songs = songs[:0]
		for rows.Next() {
			var s model.Song
			if err := rows.Scan(&s.ID, &s.Title, &s.StarRating,
				&s.Danceability, &s.Energy, &s.Mode,
				&s.Acousticness, &s.Tempo, &s.DurationMs); err != nil {
				return db.ClassifyError(err)
			}
			songs = append(songs, s)
		}
		if err := rows.Err(); err != nil {
			return db.ClassifyError(err)
		}

		return conn.QueryRow(ctx, countQuery, pattern).Scan(&total)
	})
	if err != nil {
		return nil, 0, &apperr.QueryError{Op: "search songs by title", Err: err}
	}
	d.log.Debugf("Search %q matched %d rows (returned %d)", term, total, len(songs))
	return songs, total, nil
}

// ResolveUnique resolves a title to the id of exactly one song using
// exact matching. Fails with apperr.ErrNotFound when no song matches
// and apperr.ErrAmbiguousTarget when more than one does.
func (d *SongDAO) ResolveUnique(ctx context.Context, title string) (string, error) {
	query := `
		SELECT id
		FROM music_data
		WHERE LOWER(title) = LOWER($1)
		ORDER BY id
		LIMIT 2;`

	var ids []string
	err := d.withConn(ctx, func(conn *db.Conn) error {
		rows, err := conn.Query(ctx, query, title)
		if err != nil {
			return err
		}
		defer rows.Close()

		ids = ids[:0]
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return db.ClassifyError(err)
			}
			ids = append(ids, id)
		}
		return db.ClassifyError(rows.Err())
	})
	if err != nil {
		return "", &apperr.QueryError{Op: "resolve song title", Err: err}
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("song %q: %w", title, apperr.ErrNotFound)
	case 1:
		return ids[0], nil
	default:
		d.log.Warnf("Title %q resolves to multiple songs", title)
		return "", fmt.Errorf("title %q matches more than one song: %w", title, apperr.ErrAmbiguousTarget)
	}
}

// UpdateRating sets the star rating of the song with the given id.
// Fails with apperr.ErrNotFound when no row matched.
func (d *SongDAO) UpdateRating(ctx context.Context, id string, rating float64) (*model.RatingUpdate, error) {
	query := `
		UPDATE music_data
		SET star_rating = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING id, title, star_rating;`

	var update model.RatingUpdate
	err := d.withConn(ctx, func(conn *db.Conn) error {
		return conn.QueryRow(ctx, query, rating, id).Scan(
			&update.ID, &update.Title, &update.Rating)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("song id %q: %w", id, apperr.ErrNotFound)
		}
		return nil, &apperr.QueryError{Op: "update song rating", Err: err}
	}
	d.log.Infof("Updated rating for %q (id=%s) to %.1f", update.Title, update.ID, update.Rating)
	return &update, nil
}
