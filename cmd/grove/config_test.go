package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)

		assert.False(t, cfg.Debug)
		assert.Equal(t, 10*time.Second, cfg.StopTimeout)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "console", cfg.LogFormat)
	})

	t.Run("env file", func(t *testing.T) {
		t.Setenv("GROVE_DEBUG", "")
		os.Unsetenv("GROVE_DEBUG")
		t.Setenv("GROVE_STOP_TIMEOUT", "")
		os.Unsetenv("GROVE_STOP_TIMEOUT")

		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("GROVE_DEBUG=true\nGROVE_STOP_TIMEOUT=3s\n"), 0o644))

		cfg, err := loadConfig(envFile)
		require.NoError(t, err)
		assert.True(t, cfg.Debug)
		assert.Equal(t, 3*time.Second, cfg.StopTimeout)
	})

	t.Run("environment wins over env file", func(t *testing.T) {
		t.Setenv("GROVE_HTTP_ADDR", "127.0.0.1:9999")

		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("GROVE_HTTP_ADDR=:1\n"), 0o644))

		cfg, err := loadConfig(envFile)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9999", cfg.HTTPAddr)
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("GROVE_STOP_TIMEOUT", "soon")

		_, err := loadConfig("")
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		log, err := newLogger(&Config{LogFormat: format, Debug: true})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(-1))
	}
}
