package config

import (
	"math"
	"time"

	"github.com/ajitpratap0/fetchcsv/pkg/compression"
	nerrors "github.com/ajitpratap0/fetchcsv/pkg/errors"
	"github.com/ajitpratap0/fetchcsv/pkg/fetcher"
	"github.com/ajitpratap0/fetchcsv/pkg/logger"
)

// Config is the fully resolved configuration for one run
type Config struct {
	// Fetch settings control the HTTP request and its retries
	Fetch FetchConfig `mapstructure:"fetch" yaml:"fetch"`

	// Output settings control the CSV destination
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Log settings control the log sinks
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Telemetry settings control metrics and trace export
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// FetchConfig contains the source endpoint and retry settings
type FetchConfig struct {
	// URL of the JSON document
	URL string `mapstructure:"url" yaml:"url"`
	// Timeout per attempt, in seconds
	Timeout float64 `mapstructure:"timeout" yaml:"timeout"`
	// Retries is the maximum number of attempts
	Retries int `mapstructure:"retries" yaml:"retries"`
	// InitialBackoff is the delay after the first failed attempt
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	// MaxBackoff caps a single delay (0 = uncapped)
	MaxBackoff time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
	// RetryMalformed retries 2xx responses that are not valid JSON
	RetryMalformed bool `mapstructure:"retry_malformed" yaml:"retry_malformed"`
	// UserAgent sent with every request
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// OutputConfig contains the CSV destination settings
type OutputConfig struct {
	// Path of the CSV file
	Path string `mapstructure:"path" yaml:"path"`
	// MaxRows caps the rows written (0 = unlimited)
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`
	// Compression algorithm applied to the file
	Compression string `mapstructure:"compression" yaml:"compression"`
}

// LogConfig contains the log sink settings
type LogConfig struct {
	File      string `mapstructure:"file" yaml:"file"`
	Level     string `mapstructure:"level" yaml:"level"`
	NoConsole bool   `mapstructure:"no_console" yaml:"no_console"`
}

// TelemetryConfig contains optional metrics and trace outputs
type TelemetryConfig struct {
	// MetricsFile receives the Prometheus text exposition at exit
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
	// TraceFile receives finished spans as JSON
	TraceFile string `mapstructure:"trace_file" yaml:"trace_file"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			Timeout:        10.0,
			Retries:        3,
			InitialBackoff: time.Second,
			UserAgent:      "fetchcsv/dev",
		},
		Output: OutputConfig{
			Compression: string(compression.None),
		},
		Log: LogConfig{
			File:  logger.DefaultFile,
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Fetch.URL == "" {
		return nerrors.New(nerrors.ErrorTypeConfig, "url is required")
	}
	if c.Output.Path == "" {
		return nerrors.New(nerrors.ErrorTypeConfig, "out is required")
	}
	if c.Fetch.Retries < 1 {
		return nerrors.Newf(nerrors.ErrorTypeConfig, "retries must be at least 1, got %d", c.Fetch.Retries)
	}
	if c.Fetch.Timeout <= 0 || math.IsNaN(c.Fetch.Timeout) || math.IsInf(c.Fetch.Timeout, 0) {
		return nerrors.Newf(nerrors.ErrorTypeConfig, "timeout must be a positive number of seconds, got %v", c.Fetch.Timeout)
	}
	if c.Fetch.Timeout*float64(time.Second) >= math.MaxInt64 || c.timeout() <= 0 {
		return nerrors.Newf(nerrors.ErrorTypeConfig, "timeout out of range, got %v seconds", c.Fetch.Timeout)
	}
	if c.Fetch.InitialBackoff < 0 || c.Fetch.MaxBackoff < 0 {
		return nerrors.New(nerrors.ErrorTypeConfig, "backoff durations must not be negative")
	}
	if c.Output.MaxRows < 0 {
		return nerrors.Newf(nerrors.ErrorTypeConfig, "max-rows must not be negative, got %d", c.Output.MaxRows)
	}
	if _, err := compression.ParseAlgorithm(c.Output.Compression); err != nil {
		return nerrors.Wrap(err, nerrors.ErrorTypeConfig, "invalid compression")
	}
	return nil
}

// FetchConfig converts the fetch section into the Fetcher's settings
func (c *Config) FetchConfig() fetcher.FetchConfig {
	return fetcher.FetchConfig{
		URL:            c.Fetch.URL,
		Timeout:        c.timeout(),
		MaxRetries:     c.Fetch.Retries,
		InitialBackoff: c.Fetch.InitialBackoff,
		MaxBackoff:     c.Fetch.MaxBackoff,
		RetryMalformed: c.Fetch.RetryMalformed,
	}
}

func (c *Config) timeout() time.Duration {
	return time.Duration(c.Fetch.Timeout * float64(time.Second))
}

// CompressionAlgorithm returns the parsed output compression
func (c *Config) CompressionAlgorithm() compression.Algorithm {
	alg, err := compression.ParseAlgorithm(c.Output.Compression)
	if err != nil {
		return compression.None
	}
	return alg
}

// LoggerConfig converts the log section into the logger's settings
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:     c.Log.Level,
		File:      c.Log.File,
		NoConsole: c.Log.NoConsole,
	}
}
