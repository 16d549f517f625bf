package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate_NormalizesAndDefaults(t *testing.T) {
	tmp := t.TempDir()
	cfg := &Config{
		ServerURL: "http://127.0.0.1:8080",
		StateDir:  tmp,
		Path:      filepath.Join(tmp, "config.json"),
	}

	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.StateDir))
	assert.True(t, filepath.IsAbs(cfg.Path))

	empty := &Config{}
	require.NoError(t, empty.Validate())
	assert.Equal(t, DefaultServerURL, empty.ServerURL)
	assert.Equal(t, DefaultStateDir, empty.StateDir)
}

func TestConfig_Validate_ErrorsOnInvalidInputs(t *testing.T) {
	t.Run("bad scheme", func(t *testing.T) {
		cfg := &Config{ServerURL: "ftp://bad.example.com"}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "server url")
	})

	t.Run("no host", func(t *testing.T) {
		cfg := &Config{ServerURL: "https://"}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "server url")
	})
}

func TestConfig_SaveAndLoad_Roundtrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "config.json")

	cfg := &Config{
		ServerURL:    "http://127.0.0.1:8080",
		StateDir:     tmp,
		SessionToken: "tok",
	}
	require.NoError(t, cfg.Save(path))
	assert.Equal(t, path, cfg.Path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ServerURL, loaded.ServerURL)
	assert.Equal(t, cfg.StateDir, loaded.StateDir)
	assert.Equal(t, "tok", loaded.SessionToken)
	assert.Equal(t, path, loaded.Path)
}

func TestConfig_Load_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
