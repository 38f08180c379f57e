package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "domark", cfg.Name)
	assert.Equal(t, "session-config", cfg.Document.ConfigBlockLang)
	assert.Equal(t, "msg-metadata", cfg.Document.MetadataBlockLang)
	assert.True(t, cfg.Document.ResolveInclusions)
	assert.Equal(t, 5, cfg.Patch.SearchWindow)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Patch.SearchWindow, cfg.Patch.SearchWindow)
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Paths.FSMap = "/project:/home/me/work"
	cfg.Patch.SearchWindow = 3
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/project:/home/me/work", loaded.Paths.FSMap)
	assert.Equal(t, 3, loaded.Patch.SearchWindow)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"empty config lang", func(c *Config) { c.Document.ConfigBlockLang = "" }, true},
		{"empty metadata lang", func(c *Config) { c.Document.MetadataBlockLang = "" }, true},
		{"negative window", func(c *Config) { c.Patch.SearchWindow = -1 }, true},
		{"zero output limit", func(c *Config) { c.Execution.MaxOutputBytes = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoggingConfigIsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{DebugMode: false}
	assert.False(t, lc.IsCategoryEnabled("tools"))

	lc = LoggingConfig{DebugMode: true}
	assert.True(t, lc.IsCategoryEnabled("tools"))

	lc = LoggingConfig{DebugMode: true, Categories: map[string]bool{"tools": false}}
	assert.False(t, lc.IsCategoryEnabled("tools"))
	assert.True(t, lc.IsCategoryEnabled("patch"))
}
