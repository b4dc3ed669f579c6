package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SYNCAT_EDITOR", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPath(t *testing.T) {
	t.Setenv("SYNCAT_EDITOR", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEditor, cfg.Editor)
	assert.Equal(t, DefaultMaxRows, cfg.MaxRows)
	assert.Equal(t, DefaultQuitSequence, cfg.Quit())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("SYNCAT_EDITOR", "")
	path := writeConfig(t, `
editor = "nvim"
editor_settings = ["set background=dark", "colorscheme desert"]
max_rows = 1000
color = "never"
poll_interval_ms = 10
quit_sequence = ""
quit_grace_ms = 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nvim", cfg.Editor)
	assert.Equal(t, []string{"set background=dark", "colorscheme desert"}, cfg.EditorSettings)
	assert.Equal(t, 1000, cfg.MaxRows)
	assert.Equal(t, ColorNever, cfg.Color)
	assert.Equal(t, 10*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, "", cfg.Quit(), "explicit empty quit sequence disables the quit step")
	assert.Equal(t, time.Duration(0), cfg.QuitGrace())
	assert.Equal(t, DefaultReadBuffer, cfg.ReadBuffer, "unset keys keep defaults")
}

func TestLoadEditorFromEnv(t *testing.T) {
	t.Setenv("SYNCAT_EDITOR", "/opt/vim/bin/vim")
	path := writeConfig(t, `editor = "nvim"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/vim/bin/vim", cfg.Editor)
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, `max_rows = "lots"`)
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"max rows at limit", func(c *Config) { c.MaxRows = MaxRowsLimit }, true},
		{"max rows over limit", func(c *Config) { c.MaxRows = MaxRowsLimit + 1 }, false},
		{"zero max rows", func(c *Config) { c.MaxRows = 0 }, false},
		{"bad color", func(c *Config) { c.Color = "sometimes" }, false},
		{"empty editor", func(c *Config) { c.Editor = "" }, false},
		{"zero read buffer", func(c *Config) { c.ReadBuffer = 0 }, false},
		{"zero poll interval", func(c *Config) { c.PollIntervalMs = 0 }, false},
		{"negative grace", func(c *Config) { c.QuitGraceMs = -1 }, false},
		{"negative transcript", func(c *Config) { c.TranscriptLines = -1 }, false},
		{"debug log level", func(c *Config) { c.LogLevel = "debug" }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "chatty" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("SYNCAT_CONFIG", "/etc/syncat.toml")
	assert.Equal(t, "/etc/syncat.toml", Path())

	t.Setenv("SYNCAT_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "syncat", "config.toml"), Path())
}
