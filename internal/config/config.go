package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	envPrefix      = "BLINK_"
	defaultFile    = "blink.toml"
	defaultDataDir = "blink"
)

// Config is the runtime configuration shared by both hosts.
type Config struct {
	DataDir  string         `toml:"data_dir"`
	Autosave AutosaveConfig `toml:"autosave"`
	Logging  LoggingConfig  `toml:"logging"`
	Web      WebConfig      `toml:"web"`
}

// AutosaveConfig controls the recovery slot timer.
type AutosaveConfig struct {
	Interval       string `toml:"interval"`        // e.g. "30s"
	RecoveryWindow string `toml:"recovery_window"` // snapshots older than this are not offered
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type WebConfig struct {
	Listen string `toml:"listen"`
}

// Default returns the built-in configuration.
func Default() Config {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return Config{
		DataDir: filepath.Join(base, defaultDataDir),
		Autosave: AutosaveConfig{
			Interval:       "30s",
			RecoveryWindow: "1h",
		},
		Logging: LoggingConfig{Level: "info"},
		Web:     WebConfig{Listen: "127.0.0.1:8080"},
	}
}

// Load reads .env, then the TOML file at path (or blink.toml in the working
// directory when path is empty), then BLINK_* environment overrides.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = defaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"DATA_DIR":        &cfg.DataDir,
		"AUTOSAVE":        &cfg.Autosave.Interval,
		"RECOVERY_WINDOW": &cfg.Autosave.RecoveryWindow,
		"LOG_LEVEL":       &cfg.Logging.Level,
		"LOG_FILE":        &cfg.Logging.File,
		"LISTEN":          &cfg.Web.Listen,
	}
	for key, target := range overrides {
		if value := strings.TrimSpace(os.Getenv(envPrefix + key)); value != "" {
			*target = value
		}
	}
}

// Validate checks that durations parse and are positive.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir must not be empty")
	}
	if _, err := c.AutosaveInterval(); err != nil {
		return err
	}
	if _, err := c.RecoveryWindow(); err != nil {
		return err
	}
	return nil
}

func (c Config) AutosaveInterval() (time.Duration, error) {
	return positiveDuration("autosave.interval", c.Autosave.Interval)
}

func (c Config) RecoveryWindow() (time.Duration, error) {
	return positiveDuration("autosave.recovery_window", c.Autosave.RecoveryWindow)
}

// StorePath is the directory of the embedded key-value store.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, "store")
}

func positiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return d, nil
}
