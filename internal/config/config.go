// Package config loads syncat settings from a TOML file, the environment and
// command-line overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// MaxRowsLimit is the largest row count the kernel window size can carry
// (winsize.ws_row is an unsigned short).
const MaxRowsLimit = 65535

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Defaults.
const (
	DefaultEditor          = "vim"
	DefaultMaxRows         = 4096
	DefaultReadBuffer      = 4096
	DefaultPollIntervalMs  = 50
	DefaultQuitSequence    = "\x1b:qa!\r"
	DefaultQuitGraceMs     = 2000
	DefaultTranscriptLines = 200
	DefaultLogLevel        = "warn"
)

// ErrInvalidConfig is returned by Validate and Load for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every tunable of a rendering run.
type Config struct {
	Editor          string   `toml:"editor"`
	EditorSettings  []string `toml:"editor_settings"`
	MaxRows         int      `toml:"max_rows"`
	Color           string   `toml:"color"`
	ReadBuffer      int      `toml:"read_buffer"`
	PollIntervalMs  int      `toml:"poll_interval_ms"`
	QuitSequence    *string  `toml:"quit_sequence"`
	QuitGraceMs     int      `toml:"quit_grace_ms"`
	TranscriptLines int      `toml:"transcript_lines"`
	LogLevel        string   `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	quit := DefaultQuitSequence
	return &Config{
		Editor:          DefaultEditor,
		MaxRows:         DefaultMaxRows,
		Color:           ColorAuto,
		ReadBuffer:      DefaultReadBuffer,
		PollIntervalMs:  DefaultPollIntervalMs,
		QuitSequence:    &quit,
		QuitGraceMs:     DefaultQuitGraceMs,
		TranscriptLines: DefaultTranscriptLines,
		LogLevel:        DefaultLogLevel,
	}
}

// Path returns the config file location: $SYNCAT_CONFIG, then
// $XDG_CONFIG_HOME/syncat/config.toml, then ~/.config/syncat/config.toml.
func Path() string {
	if p := os.Getenv("SYNCAT_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "syncat", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "syncat", "config.toml")
}

// Load reads path on top of the defaults. An empty path or a missing file
// yields the defaults. SYNCAT_EDITOR overrides the editor from the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
			}
		}
	}

	if ed := os.Getenv("SYNCAT_EDITOR"); ed != "" {
		cfg.Editor = ed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Editor == "" {
		return fmt.Errorf("%w: editor must not be empty", ErrInvalidConfig)
	}
	if c.MaxRows < 1 || c.MaxRows > MaxRowsLimit {
		return fmt.Errorf("%w: max_rows %d out of range 1..%d", ErrInvalidConfig, c.MaxRows, MaxRowsLimit)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color %q (want auto, always or never)", ErrInvalidConfig, c.Color)
	}
	if c.ReadBuffer < 1 {
		return fmt.Errorf("%w: read_buffer must be positive", ErrInvalidConfig)
	}
	if c.PollIntervalMs < 1 {
		return fmt.Errorf("%w: poll_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.QuitGraceMs < 0 {
		return fmt.Errorf("%w: quit_grace_ms must not be negative", ErrInvalidConfig)
	}
	if c.TranscriptLines < 0 {
		return fmt.Errorf("%w: transcript_lines must not be negative", ErrInvalidConfig)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// PollInterval is the readiness-wait bound of the feed loop.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// QuitGrace is how long the child may keep running after the quit step.
func (c *Config) QuitGrace() time.Duration {
	return time.Duration(c.QuitGraceMs) * time.Millisecond
}

// Quit returns the quit keystrokes; empty disables the quit step.
func (c *Config) Quit() string {
	if c.QuitSequence == nil {
		return DefaultQuitSequence
	}
	return *c.QuitSequence
}
