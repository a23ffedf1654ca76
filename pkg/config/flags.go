package config

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/ajitpratap0/fetchcsv/pkg/compression"
)

// Flag names
const (
	FlagURL            = "url"
	FlagOut            = "out"
	FlagMaxRows        = "max-rows"
	FlagTimeout        = "timeout"
	FlagRetries        = "retries"
	FlagNoConsole      = "no-console"
	FlagConfig         = "config"
	FlagLogFile        = "log-file"
	FlagLogLevel       = "log-level"
	FlagInitialBackoff = "initial-backoff"
	FlagMaxBackoff     = "max-backoff"
	FlagRetryMalformed = "retry-malformed"
	FlagCompression    = "compression"
	FlagMetricsFile    = "metrics-file"
	FlagTraceFile      = "trace-file"
)

// flagKeys maps each flag onto its config key
var flagKeys = map[string]string{
	FlagURL:            "fetch.url",
	FlagTimeout:        "fetch.timeout",
	FlagRetries:        "fetch.retries",
	FlagInitialBackoff: "fetch.initial_backoff",
	FlagMaxBackoff:     "fetch.max_backoff",
	FlagRetryMalformed: "fetch.retry_malformed",
	FlagOut:            "output.path",
	FlagMaxRows:        "output.max_rows",
	FlagCompression:    "output.compression",
	FlagLogFile:        "log.file",
	FlagLogLevel:       "log.level",
	FlagNoConsole:      "log.no_console",
	FlagMetricsFile:    "telemetry.metrics_file",
	FlagTraceFile:      "telemetry.trace_file",
}

// RegisterFlags defines every configuration flag on fs
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	algorithms := make([]string, len(compression.Algorithms))
	for i, alg := range compression.Algorithms {
		algorithms[i] = string(alg)
	}

	// Required
	fs.String(FlagURL, "", "Source URL returning JSON (required)")
	fs.String(FlagOut, "", "Destination CSV path (required)")

	// Fetch
	fs.Float64(FlagTimeout, d.Fetch.Timeout, "Per-attempt HTTP timeout in seconds")
	fs.Int(FlagRetries, d.Fetch.Retries, "Maximum fetch attempts")
	fs.Duration(FlagInitialBackoff, d.Fetch.InitialBackoff, "Delay after the first failed attempt; doubles after each failure")
	fs.Duration(FlagMaxBackoff, d.Fetch.MaxBackoff, "Cap for a single retry delay (0 leaves it uncapped)")
	fs.Bool(FlagRetryMalformed, d.Fetch.RetryMalformed, "Retry 2xx responses whose body is not valid JSON")

	// Output
	fs.Int(FlagMaxRows, d.Output.MaxRows, "Maximum rows to write after normalization (0 = unlimited)")
	fs.String(FlagCompression, d.Output.Compression, "Output compression ("+strings.Join(algorithms, ", ")+")")

	// Logging
	fs.Bool(FlagNoConsole, d.Log.NoConsole, "Disable console logging, log to file only")
	fs.String(FlagLogFile, d.Log.File, "Append-only log file")
	fs.String(FlagLogLevel, d.Log.Level, "Log level (debug, info, warn, error)")

	// Telemetry
	fs.String(FlagMetricsFile, "", "Write Prometheus metrics to this file at exit")
	fs.String(FlagTraceFile, "", "Write trace spans as JSON to this file")

	fs.String(FlagConfig, "", "YAML configuration file")
}
