package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	log, err := New(Options{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	log.Info().Str("component", "test").Msg("hello file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"message":"hello file"`), string(data))
	require.True(t, strings.Contains(string(data), `"component":"test"`))
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud", Format: "json"})
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewRotatingWriterRejectsEmptyPath(t *testing.T) {
	_, err := NewRotatingWriter("", 0, 0)
	require.Error(t, err)
}

func TestNewRotatingWriterDefaults(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "a.log"), 0, -1)
	require.NoError(t, err)
	require.Equal(t, 10, w.MaxSize)
	require.Equal(t, 5, w.MaxBackups)
}
