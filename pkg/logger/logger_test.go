package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_CreatesDirectoryAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs", "app.log")

	for i := 0; i < 2; i++ {
		log, err := New(Config{File: path, NoConsole: true})
		require.NoError(t, err)
		log.Info("run finished", zap.Int("run", i))
		require.NoError(t, log.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"run finished"`)
	assert.Contains(t, lines[0], `"level":"info"`)
	assert.Contains(t, lines[1], `"run":1`)
}

func TestNew_ConsoleMirror(t *testing.T) {
	var console bytes.Buffer
	log, err := New(Config{File: filepath.Join(t.TempDir(), "app.log"), Console: &console})
	require.NoError(t, err)

	log.Warn("HTTP 500 from http://example.test")
	require.NoError(t, log.Close())

	assert.Contains(t, console.String(), "HTTP 500 from http://example.test")
}

func TestNew_NoConsole(t *testing.T) {
	var console bytes.Buffer
	log, err := New(Config{File: filepath.Join(t.TempDir(), "app.log"), Console: &console, NoConsole: true})
	require.NoError(t, err)

	log.Error("ERROR: boom")
	require.NoError(t, log.Close())

	assert.Empty(t, console.String())
}

func TestNew_LevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(Config{File: path, Level: "warn", NoConsole: true})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{File: filepath.Join(t.TempDir(), "app.log"), Level: "loud"})
	assert.Error(t, err)
}
