package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverridesFSMap(t *testing.T) {
	t.Setenv("DOMARK_FS_MAP", "/v:/real")
	t.Setenv("DOMARK_FS_MAP_TMP_DIR", "/scratch")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/v:/real", cfg.Paths.FSMap)
	assert.Equal(t, "/scratch", cfg.Paths.TmpDir)
}

func TestEnvOverridesBeatFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Paths.FSMap = "/from-file:/elsewhere"
	require.NoError(t, cfg.Save(path))

	t.Setenv("DOMARK_FS_MAP", "/from-env:/wins")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from-env:/wins", loaded.Paths.FSMap)
}

func TestEnvOverrideShellAndLogLevel(t *testing.T) {
	t.Setenv("DOMARK_SHELL", "bash")
	t.Setenv("DOMARK_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "bash", cfg.Execution.Shell)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
