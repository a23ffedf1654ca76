package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	nerrors "github.com/ajitpratap0/fetchcsv/pkg/errors"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("fetchcsv", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fetchcsv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t, "--url", "http://example.com/data", "--out", "out.csv"), "")
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/data", cfg.Fetch.URL)
	assert.Equal(t, "out.csv", cfg.Output.Path)
	assert.Equal(t, 10.0, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.Retries)
	assert.Equal(t, time.Second, cfg.Fetch.InitialBackoff)
	assert.Zero(t, cfg.Fetch.MaxBackoff)
	assert.Zero(t, cfg.Output.MaxRows)
	assert.Equal(t, "none", cfg.Output.Compression)
	assert.Equal(t, "logs/app.log", cfg.Log.File)
	assert.False(t, cfg.Log.NoConsole)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load(newFlags(t,
		"--url", "http://example.com",
		"--out", "data/out.csv",
		"--max-rows", "25",
		"--timeout", "2.5",
		"--retries", "5",
		"--no-console",
		"--max-backoff", "8s",
		"--compression", "gzip",
	), "")
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Output.MaxRows)
	assert.Equal(t, 2.5, cfg.Fetch.Timeout)
	assert.Equal(t, 5, cfg.Fetch.Retries)
	assert.True(t, cfg.Log.NoConsole)
	assert.Equal(t, 8*time.Second, cfg.Fetch.MaxBackoff)
	assert.Equal(t, "gzip", cfg.Output.Compression)

	fc := cfg.FetchConfig()
	assert.Equal(t, 2500*time.Millisecond, fc.Timeout)
	assert.Equal(t, 5, fc.MaxRetries)
	assert.Equal(t, 8*time.Second, fc.MaxBackoff)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
fetch:
  url: http://file.example.com
  retries: 7
  timeout: 4
output:
  path: file.csv
  max_rows: 9
log:
  level: debug
`)
	t.Setenv("FETCHCSV_FETCH_RETRIES", "6")
	t.Setenv("FETCHCSV_OUTPUT_MAX_ROWS", "11")

	cfg, err := Load(newFlags(t, "--max-rows", "12"), path)
	require.NoError(t, err)

	assert.Equal(t, "http://file.example.com", cfg.Fetch.URL) // file
	assert.Equal(t, 6, cfg.Fetch.Retries)                     // env over file
	assert.Equal(t, 12, cfg.Output.MaxRows)                   // flag over env
	assert.Equal(t, 4.0, cfg.Fetch.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "file.csv", cfg.Output.Path)
}

func TestLoad_EnvironmentDurations(t *testing.T) {
	t.Setenv("FETCHCSV_FETCH_URL", "http://env.example.com")
	t.Setenv("FETCHCSV_OUTPUT_PATH", "env.csv")
	t.Setenv("FETCHCSV_FETCH_INITIAL_BACKOFF", "250ms")
	t.Setenv("FETCHCSV_FETCH_TIMEOUT", "0.5")

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.InitialBackoff)
	assert.Equal(t, 500*time.Millisecond, cfg.FetchConfig().Timeout)
}

func TestLoad_SubstitutesEnvVars(t *testing.T) {
	t.Setenv("API_HOST", "api.example.com")
	t.Setenv("API_TOKEN", "s3cr3t")
	path := writeConfig(t, `
fetch:
  url: https://${API_HOST}/items?token=${API_TOKEN}&missing=${FETCHCSV_TEST_UNSET}
output:
  path: items.csv
`)

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/items?token=s3cr3t&missing=", cfg.Fetch.URL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing url", []string{"--out", "x.csv"}},
		{"missing out", []string{"--url", "http://example.com"}},
		{"zero retries", []string{"--url", "http://example.com", "--out", "x.csv", "--retries", "0"}},
		{"zero timeout", []string{"--url", "http://example.com", "--out", "x.csv", "--timeout", "0"}},
		{"timeout overflows duration", []string{"--url", "http://example.com", "--out", "x.csv", "--timeout", "1e12"}},
		{"timeout below one nanosecond", []string{"--url", "http://example.com", "--out", "x.csv", "--timeout", "1e-10"}},
		{"negative max rows", []string{"--url", "http://example.com", "--out", "x.csv", "--max-rows", "-1"}},
		{"unknown compression", []string{"--url", "http://example.com", "--out", "x.csv", "--compression", "rar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tt.args...), "")
			require.Error(t, err)
			assert.True(t, nerrors.IsType(err, nerrors.ErrorTypeConfig))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypeConfig))
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(nil, writeConfig(t, "fetch: [unclosed"))
	require.Error(t, err)
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypeConfig))
}

func TestMarshal(t *testing.T) {
	cfg := Default()
	cfg.Fetch.URL = "http://example.com"
	cfg.Fetch.MaxBackoff = 30 * time.Second

	data, err := Marshal(cfg)
	require.NoError(t, err)

	var decoded map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "http://example.com", decoded["fetch"]["url"])
	assert.Equal(t, "30s", decoded["fetch"]["max_backoff"])
	assert.Equal(t, "1s", decoded["fetch"]["initial_backoff"])
	assert.Equal(t, "logs/app.log", decoded["log"]["file"])
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("FETCHCSV_TEST_A", "${FETCHCSV_TEST_B}")
	t.Setenv("FETCHCSV_TEST_B", "b")

	assert.Equal(t, "x=${FETCHCSV_TEST_B};", substituteEnvVars("x=${FETCHCSV_TEST_A};"))
	assert.Equal(t, "open ${", substituteEnvVars("open ${"))
	assert.Equal(t, "plain $HOME", substituteEnvVars("plain $HOME"))
}
