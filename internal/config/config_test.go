package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, Defaults, cfg)
}

func TestLoadOverridesSelectedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rootName": "mydecof", "cliAddr": ":2000"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mydecof", cfg.RootName)
	assert.Equal(t, ":2000", cfg.CLIAddr)
	assert.Equal(t, ":1999", cfg.PubsubAddr)
	assert.Equal(t, Defaults.Timers, cfg.Timers)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rootName": "x", "bogus": true}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingRootName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
