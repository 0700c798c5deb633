package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetup_LoadErrorIsLogged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain: [broken"), 0o600))

	var buf bytes.Buffer
	cfg, log, err := setup(path, zapcore.AddSync(&buf))
	require.Error(t, err)
	assert.Nil(t, cfg)
	require.NotNil(t, log)
	assert.Contains(t, buf.String(), `"msg":"load config"`)
	assert.Contains(t, buf.String(), "parse config")
}

func TestSetup_UsesConfiguredLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

	var buf bytes.Buffer
	cfg, log, err := setup(path, zapcore.AddSync(&buf))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)

	log.Info("dropped")
	log.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
