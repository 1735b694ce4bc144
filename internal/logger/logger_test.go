package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NoOutputIsNop(t *testing.T) {
	log, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(-1))
}

func TestNew_FileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "granthx.log")
	log, err := New(Options{File: path, Level: "debug"})
	require.NoError(t, err)

	log.Named("chat").Info("chat request failed")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"chat request failed"`)
	assert.Contains(t, string(data), `"logger":"chat"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "granthx.log")
	log, err := New(Options{File: path, Level: "warn"})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
