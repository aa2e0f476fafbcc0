package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
	"github.com/schollz/progressbar/v3"

	"github.com/prachisingh/musicapi/internal/db"
	"github.com/prachisingh/musicapi/pkg/logger"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS public.music_data (
    index_col SERIAL UNIQUE,
    id VARCHAR(255) PRIMARY KEY,
    title VARCHAR(255),
    danceability FLOAT,
    energy FLOAT,
    mode INT,
    acousticness FLOAT,
    tempo FLOAT,
    duration_ms INT,
    num_sections INT,
    num_segments INT,
    star_rating FLOAT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

const createIndexSQL = `CREATE INDEX IF NOT EXISTS idx_music_title ON music_data(title);`

const insertSQL = `
INSERT INTO music_data
    (id, title, danceability, energy, mode, acousticness, tempo,
     duration_ms, num_sections, num_segments)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING;`

// Inserter writes tracks into the music_data table through the pool.
type Inserter struct {
	pool    *db.Pool
	log     *logger.Logger
	verbose bool
}

// NewInserter creates an Inserter. With verbose set it prints colored
// progress to stderr.
func NewInserter(pool *db.Pool, verbose bool) *Inserter {
	return &Inserter{pool: pool, log: logger.GetLogger(), verbose: verbose}
}

// EnsureTable creates the music_data table and its title index if they
// do not exist yet.
func (ins *Inserter) EnsureTable(ctx context.Context) error {
	conn, err := ins.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create music_data table: %w", err)
	}
	if _, err := conn.Exec(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create title index: %w", err)
	}
	ins.log.Infof("Table music_data ensured")
	return nil
}

// InsertTracks batch-inserts tracks, skipping ids already present.
// Returns the number of rows actually inserted.
func (ins *Inserter) InsertTracks(ctx context.Context, tracks []Track, batchSize int) (int64, error) {
	if batchSize < 1 {
		batchSize = 500
	}

	var bar *progressbar.ProgressBar
	if ins.verbose {
		bar = progressbar.NewOptions(len(tracks),
			progressbar.OptionSetDescription("Inserting songs"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("rows"),
		)
	}

	start := time.Now()
	var inserted int64
	for chunkStart := 0; chunkStart < len(tracks); chunkStart += batchSize {
		end := chunkStart + batchSize
		if end > len(tracks) {
			end = len(tracks)
		}

		n, err := ins.insertChunk(ctx, tracks[chunkStart:end])
		if err != nil {
			return inserted, err
		}
		inserted += n

		if bar != nil {
			_ = bar.Set(end)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	if ins.verbose {
		color.New(color.FgGreen, color.Bold).Printf(
			"✓ Inserted %d of %d songs in %v (duplicates skipped)\n",
			inserted, len(tracks), elapsed)
	}
	ins.log.Infof("Ingestion complete: %d/%d rows inserted in %v", inserted, len(tracks), elapsed)
	return inserted, nil
}

// insertChunk sends one pgx batch over a single pooled connection.
func (ins *Inserter) insertChunk(ctx context.Context, tracks []Track) (int64, error) {
	conn, err := ins.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	batch := &pgx.Batch{}
	for _, t := range tracks {
		batch.Queue(insertSQL,
			t.ID, t.Title, t.Danceability, t.Energy, t.Mode,
			t.Acousticness, t.Tempo, t.DurationMs, t.NumSections, t.NumSegments)
	}

	results := conn.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range tracks {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("batch insert: %w", db.ClassifyError(err))
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
