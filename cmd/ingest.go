package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prachisingh/musicapi/internal/config"
	"github.com/prachisingh/musicapi/internal/db"
	"github.com/prachisingh/musicapi/internal/ingest"
	"github.com/prachisingh/musicapi/pkg/logger"
)

var (
	ingestFile      string
	ingestFormat    string
	ingestBatchSize int
	ingestSkipTable bool
	ingestQuiet     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a song dataset into the music_data table",
	Long: `Ingest reads a JSON or CSV dataset export, validates each record, and
batch-inserts the songs. Rows whose id already exists are skipped, so
re-running the same file is safe.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "Dataset file to load (required)")
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "", "File format: json or csv (default: by extension)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 500, "Rows per insert batch")
	ingestCmd.Flags().BoolVar(&ingestSkipTable, "skip-table", false, "Do not create the table if missing")
	ingestCmd.Flags().BoolVar(&ingestQuiet, "quiet", false, "Suppress progress output")

	ingestCmd.MarkFlagRequired("file")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))

	format := ingest.Format(ingestFormat)
	if ingestFormat == "" {
		if format, err = ingest.DetectFormat(ingestFile); err != nil {
			return err
		}
	}

	records, err := ingest.ReadFile(ingestFile, format)
	if err != nil {
		return err
	}
	tracks, err := ingest.Normalize(records)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", ingestFile, err)
	}
	log.Infof("Read %d songs from %s", len(tracks), ingestFile)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	pool, err := db.NewPool(ctx, cfg.DSN(), db.Options{
		MinConns:       cfg.PoolMinConns,
		MaxConns:       cfg.PoolMaxConns,
		AcquireTimeout: cfg.AcquireTimeout,
	})
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	inserter := ingest.NewInserter(pool, !ingestQuiet)

	runCtx := context.Background()
	if !ingestSkipTable {
		if err := inserter.EnsureTable(runCtx); err != nil {
			return err
		}
	}

	if _, err := inserter.InsertTracks(runCtx, tracks, ingestBatchSize); err != nil {
		return err
	}
	return nil
}
