package main

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	tu "github.com/ajitpratap0/fetchcsv/pkg/testutil"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	ctx, cancel := tu.TestContext(t)
	defer cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_WritesCSV(t *testing.T) {
	server := tu.NewJSONServer(t, tu.OK(`[{"b":2,"a":1},{"a":3}]`))
	dir := t.TempDir()
	out := filepath.Join(dir, "data", "out.csv")
	logFile := filepath.Join(dir, "logs", "app.log")

	code, stdout, stderr := execute(t,
		"--url", server.URL,
		"--out", out,
		"--log-file", logFile,
		"--no-console",
	)

	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Wrote 2 rows to "+out+"\n", stdout)
	assert.Empty(t, stderr)
	assert.Equal(t, "a,b\r\n1,2\r\n3,\r\n", tu.ReadFile(t, out))
	assert.Contains(t, tu.ReadFile(t, logFile), `"message":"Wrote 2 rows to `)
}

func TestRun_ConsoleMirror(t *testing.T) {
	server := tu.NewJSONServer(t, tu.OK(`{"a":1}`))
	dir := t.TempDir()

	code, _, stderr := execute(t,
		"--url", server.URL,
		"--out", filepath.Join(dir, "out.csv"),
		"--log-file", filepath.Join(dir, "app.log"),
	)

	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "Wrote 1 rows to")
}

func TestRun_FailureExitCode(t *testing.T) {
	server := tu.NewJSONServer(t, tu.Status(http.StatusInternalServerError))
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	logFile := filepath.Join(dir, "app.log")

	code, stdout, stderr := execute(t,
		"--url", server.URL,
		"--out", out,
		"--retries", "2",
		"--initial-backoff", "1ms",
		"--log-file", logFile,
		"--no-console",
	)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.True(t, strings.HasPrefix(stderr, "ERROR: "))
	tu.RequireNoFile(t, out)

	logs := tu.ReadFile(t, logFile)
	assert.Equal(t, 2, strings.Count(logs, `"level":"warn"`))
	assert.Equal(t, 1, strings.Count(logs, `"level":"error"`))
}

func TestRun_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "app.log")

	code, _, stderr := execute(t,
		"--out", filepath.Join(dir, "out.csv"),
		"--log-file", logFile,
		"--no-console",
	)
	assert.Equal(t, 1, code)
	assert.Equal(t, "ERROR: config: url is required\n", stderr)

	logs := tu.ReadFile(t, logFile)
	assert.Contains(t, logs, `"level":"error"`)
	assert.Contains(t, logs, `"message":"ERROR: config: url is required"`)
	assert.Contains(t, logs, `"error_type":"config"`)

	code, _, stderr = execute(t, "--bogus")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stderr, "ERROR: "))
}

func TestRun_TraceFile(t *testing.T) {
	server := tu.NewJSONServer(t, tu.OK(`[1]`))
	dir := t.TempDir()
	traceFile := filepath.Join(dir, "trace.json")

	code, _, _ := execute(t,
		"--url", server.URL,
		"--out", filepath.Join(dir, "out.csv"),
		"--log-file", filepath.Join(dir, "app.log"),
		"--no-console",
		"--trace-file", traceFile,
	)

	require.Equal(t, 0, code)
	spans := tu.ReadFile(t, traceFile)
	for _, name := range []string{"pipeline.run", "fetch", "fetch.attempt", "normalize", "write"} {
		assert.Contains(t, spans, `"Name":"`+name+`"`)
	}
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "fetchcsv "+version)
}

func TestConfigCommand(t *testing.T) {
	code, stdout, stderr := execute(t, "config", "--url", "http://example.com", "--retries", "4")
	require.Equal(t, 0, code, stderr)

	var resolved map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &resolved))
	assert.Equal(t, "http://example.com", resolved["fetch"]["url"])
	assert.Equal(t, 4, resolved["fetch"]["retries"])
	assert.Equal(t, "logs/app.log", resolved["log"]["file"])
}
