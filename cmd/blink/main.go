package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/autosave"
	"github.com/csheth/blink/internal/config"
	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/export"
	"github.com/csheth/blink/internal/logging"
	"github.com/csheth/blink/internal/storage"
	"github.com/csheth/blink/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to a blink.toml file")
	dataDir := flag.String("data-dir", "", "override the directory holding preferences and recovery data")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [file]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*configPath, *dataDir, *noAltScreen, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "blink:", err)
		os.Exit(1)
	}
}

func run(configPath, dataDir string, noAltScreen bool, openPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	interval, _ := cfg.AutosaveInterval()
	window, _ := cfg.RecoveryWindow()

	// the terminal belongs to the UI, so logs always go to a file
	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = filepath.Join(cfg.DataDir, "blink.log")
	}
	logger := logging.New(logging.Options{Level: cfg.Logging.Level, File: logFile})

	store, err := storage.OpenBadgerStore(cfg.StorePath(), logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	prompter := tui.NewPrompter()
	adapter := storage.NewFileAdapter(prompter, logger)
	ws := document.NewWorkspace()

	events := make(chan autosave.Event, 1)
	engine := autosave.New(ws, store, autosave.Options{
		Interval: interval,
		Window:   window,
		Logger:   logger,
		OnTick: func(event autosave.Event) {
			select {
			case events <- event:
			default:
			}
		},
	})

	ctrl := app.New(app.Deps{
		Workspace: ws,
		Adapter:   adapter,
		Store:     store,
		Exporter:  export.New(adapter, logger),
		Autosave:  engine,
		Confirm:   prompter.Confirm,
		Logger:    logger,
	})
	if err := ctrl.LoadPrefs(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("using default preferences")
	}

	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Stop()

	opts := []tea.ProgramOption{}
	if !noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Controller: ctrl,
			Prompter:   prompter,
			Autosave:   events,
			OpenPath:   openPath,
			Logger:     logger,
		}),
		opts...,
	)

	logger.Info().Str("data_dir", cfg.DataDir).Dur("autosave", interval).Msg("blink started")
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
