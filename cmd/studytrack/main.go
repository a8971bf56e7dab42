package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"studytrack/assets"
	"studytrack/internal/cli"
	"studytrack/internal/config"
	appserver "studytrack/internal/http"
	applog "studytrack/internal/log"
	"studytrack/internal/seed"
	"studytrack/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(config.Load())
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// A broken bundle should not keep the tracker from serving whatever
	// is already in the store.
	if err := seed.New(repo, seedSource(cfg)).Run(context.Background()); err != nil {
		logger.Error("Catalog seeding failed, serving existing data", applog.FieldError, err)
	}

	progress := services.NewProgressService(repo)
	selection := services.NewSelectionService(repo, repo)
	srv := appserver.NewServer(":"+cfg.Port, progress, selection)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server starting", applog.FieldOperation, applog.OpStartup, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server terminated", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

// seedSource picks the catalog bundle: a directory override from config,
// or the payloads embedded in the binary.
func seedSource(cfg *config.Config) fs.FS {
	if cfg.SeedDir != "" {
		return os.DirFS(cfg.SeedDir)
	}
	return assets.Seed()
}
