package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/prachisingh/musicapi/internal/config"
	"github.com/prachisingh/musicapi/internal/dao"
	"github.com/prachisingh/musicapi/internal/db"
	"github.com/prachisingh/musicapi/internal/server"
	"github.com/prachisingh/musicapi/internal/service"
	"github.com/prachisingh/musicapi/pkg/logger"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Music API HTTP server",
	Long: `Serve starts the HTTP server. The database connection pool is opened
before the listener and closed after in-flight requests drain on
SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides HTTP_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.HTTPPort = servePort
	}

	log := logger.GetLogger()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))

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

	songDAO := dao.NewSongDAO(pool)
	svc := service.NewSongService(songDAO)
	srv := server.NewServer(svc, &server.Config{
		Port:           cfg.HTTPPort,
		AllowedOrigins: cfg.CORSOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Infof("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shutdown did not complete cleanly: %v", err)
		return err
	}
	log.Infof("Server stopped")
	return nil
}
