// Package pipeline drives a fetchcsv run: fetch a JSON document, normalize
// it into rows and write the rows to CSV.
//
// # Architecture
//
// A run is strictly sequential:
//   - Source: fetches and parses the JSON document (with retries)
//   - Normalize: turns the document into rows
//   - Destination: writes the rows to CSV all-or-nothing
//
// The pipeline is the single place where a failure becomes user-visible
// output and an exit code.
//
// # Basic Usage
//
//	p := pipeline.Build(cfg, logger,
//	    pipeline.WithMetrics(collector),
//	    pipeline.WithTracer(tracing.Tracer()),
//	)
//	os.Exit(p.Execute(ctx))
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/ajitpratap0/fetchcsv/pkg/clients"
	"github.com/ajitpratap0/fetchcsv/pkg/compression"
	"github.com/ajitpratap0/fetchcsv/pkg/config"
	"github.com/ajitpratap0/fetchcsv/pkg/destinations/csv"
	nerrors "github.com/ajitpratap0/fetchcsv/pkg/errors"
	"github.com/ajitpratap0/fetchcsv/pkg/fetcher"
	"github.com/ajitpratap0/fetchcsv/pkg/metrics"
	"github.com/ajitpratap0/fetchcsv/pkg/models"
	"github.com/ajitpratap0/fetchcsv/pkg/normalize"
	"github.com/ajitpratap0/fetchcsv/pkg/observability"
)

// Source produces the JSON document for a run
type Source interface {
	Fetch(ctx context.Context, cfg fetcher.FetchConfig) (models.Value, error)
}

// Destination persists the normalized rows
type Destination interface {
	Write(ctx context.Context, rows []models.Row, path string, maxRows int) (*csv.WriteResult, error)
}

// PipelineConfig contains the per-run parameters
type PipelineConfig struct {
	Fetch      fetcher.FetchConfig
	OutputPath string
	MaxRows    int
	// MetricsFile receives the Prometheus text exposition after Execute
	MetricsFile string
}

// Pipeline sequences Source, Normalize and Destination
type Pipeline struct {
	config      PipelineConfig
	source      Source
	destination Destination

	client  *clients.HTTPClient
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
	stdout  io.Writer
	stderr  io.Writer
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMetrics records run outcomes on collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = collector }
}

// WithTracer records a span per run and stage
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// WithOutput redirects the user-facing success and failure lines
func WithOutput(stdout, stderr io.Writer) Option {
	return func(p *Pipeline) {
		p.stdout = stdout
		p.stderr = stderr
	}
}

// New creates a pipeline from its stages
func New(cfg PipelineConfig, source Source, destination Destination, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		config:      cfg,
		source:      source,
		destination: destination,
		logger:      logger,
		tracer:      noop.NewTracerProvider().Tracer(observability.TracerName),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build wires the HTTP fetcher and CSV writer described by cfg. Metrics and
// tracing options given here are shared with both stages.
func Build(cfg *config.Config, logger *zap.Logger, opts ...Option) *Pipeline {
	p := New(PipelineConfig{
		Fetch:       cfg.FetchConfig(),
		OutputPath:  cfg.Output.Path,
		MaxRows:     cfg.Output.MaxRows,
		MetricsFile: cfg.Telemetry.MetricsFile,
	}, nil, nil, logger, opts...)

	httpConfig := clients.DefaultHTTPConfig()
	httpConfig.RequestTimeout = cfg.FetchConfig().Timeout
	if cfg.Fetch.UserAgent != "" {
		httpConfig.UserAgent = cfg.Fetch.UserAgent
	}

	fetchOpts := []fetcher.Option{fetcher.WithTracer(p.tracer)}
	writeOpts := []csv.Option{
		csv.WithTracer(p.tracer),
		csv.WithCompression(cfg.CompressionAlgorithm(), compression.Default),
	}
	if p.metrics != nil {
		fetchOpts = append(fetchOpts, fetcher.WithMetrics(p.metrics))
		writeOpts = append(writeOpts, csv.WithMetrics(p.metrics))
	}

	p.client = clients.NewHTTPClient(httpConfig, p.logger)
	p.source = fetcher.New(p.client, p.logger, fetchOpts...)
	p.destination = csv.NewWriter(p.logger, writeOpts...)
	return p
}

// Run executes fetch, normalize and write. Any error is terminal.
func (p *Pipeline) Run(ctx context.Context) (result *csv.WriteResult, err error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("http.url", p.config.Fetch.URL),
		attribute.String("csv.path", p.config.OutputPath),
	))
	defer func() { observability.EndSpan(span, err) }()

	p.logger.Debug("starting pipeline",
		zap.String("url", p.config.Fetch.URL),
		zap.String("out", p.config.OutputPath),
		zap.Int("max_rows", p.config.MaxRows),
		zap.Int("retries", p.config.Fetch.MaxRetries),
		zap.Duration("timeout", p.config.Fetch.Timeout))

	value, err := p.source.Fetch(ctx, p.config.Fetch)
	if err != nil {
		return nil, err
	}

	rows := p.normalize(ctx, value)

	return p.destination.Write(ctx, rows, p.config.OutputPath, p.config.MaxRows)
}

func (p *Pipeline) normalize(ctx context.Context, value models.Value) []models.Row {
	_, span := p.tracer.Start(ctx, "normalize", trace.WithAttributes(
		attribute.String("json.kind", value.Kind().String()),
	))
	rows := normalize.Normalize(value)
	observability.EndSpan(span, nil, attribute.Int("rows", len(rows)))
	return rows
}

// Execute runs the pipeline and reports the outcome: a "Wrote <n> rows to
// <path>" line on stdout and exit code 0, or an "ERROR: <message>" line on
// stderr and exit code 1. The same line is logged.
func (p *Pipeline) Execute(ctx context.Context) int {
	start := time.Now()
	result, err := p.Run(ctx)
	if p.client != nil {
		_ = p.client.Close()
	}

	status, code := "success", 0
	if err != nil {
		status, code = "failure", 1

		msg := fmt.Sprintf("ERROR: %s", err)
		fmt.Fprintln(p.stderr, msg)
		p.logger.Error(msg,
			zap.String("error_type", string(nerrors.TypeOf(err))),
			zap.Duration("duration", time.Since(start)))

		var e *nerrors.Error
		if errors.As(err, &e) {
			p.logger.Debug("error origin", zap.Any("stack", e.Stack))
		}
	} else {
		msg := fmt.Sprintf("Wrote %d rows to %s", result.RowsWritten, result.Path)
		fmt.Fprintln(p.stdout, msg)
		p.logger.Info(msg,
			zap.Int("rows", result.RowsWritten),
			zap.Strings("columns", result.Header),
			zap.Duration("duration", time.Since(start)))
	}

	if p.metrics != nil {
		p.metrics.RecordRun(status)
		if p.config.MetricsFile != "" {
			if err := p.metrics.WriteTextfile(p.config.MetricsFile); err != nil {
				p.logger.Warn("failed to write metrics file",
					zap.String("path", p.config.MetricsFile),
					zap.Error(err))
			}
		}
	}

	return code
}
