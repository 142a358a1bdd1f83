package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/csheth/blink/internal/api"
	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/autosave"
	"github.com/csheth/blink/internal/config"
	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/logging"
	"github.com/csheth/blink/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a blink.toml file")
	listen := flag.String("listen", "", "override the listen address")
	memory := flag.Bool("memory", false, "keep all data in memory")
	flag.Parse()

	if err := run(*configPath, *listen, *memory); err != nil {
		fmt.Fprintln(os.Stderr, "blink-web:", err)
		os.Exit(1)
	}
}

func run(configPath, listen string, memory bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Web.Listen = listen
	}
	interval, _ := cfg.AutosaveInterval()
	window, _ := cfg.RecoveryWindow()

	logger := logging.New(logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	storePath := cfg.StorePath()
	if memory {
		storePath = ""
	}
	store, err := storage.OpenBadgerStore(storePath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	ws := document.NewWorkspace()
	engine := autosave.New(ws, store, autosave.Options{
		Interval: interval,
		Window:   window,
		Logger:   logger,
	})
	saved := storage.NewSavedCollections(store)
	ctrl := app.New(app.Deps{
		Workspace: ws,
		Adapter:   storage.NewKVAdapter(store),
		Store:     store,
		Saved:     saved,
		Autosave:  engine,
		Confirm:   api.Confirm,
		Logger:    logger,
	})
	if err := ctrl.LoadPrefs(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("using default preferences")
	}
	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Stop()

	srv := &http.Server{
		Addr:              cfg.Web.Listen,
		Handler:           api.NewServer(ctrl, saved, storage.NewSavedFiles(store), logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Web.Listen).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
