// Package fetcher retrieves a JSON document over HTTP with bounded retries.
//
// Each attempt produces an attemptResult: either a parsed document or a
// typed error. Transport and HTTP status failures are retried with
// exponential backoff until the attempt budget runs out; any other failure
// ends the fetch immediately.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/ajitpratap0/fetchcsv/pkg/clients"
	nerrors "github.com/ajitpratap0/fetchcsv/pkg/errors"
	"github.com/ajitpratap0/fetchcsv/pkg/metrics"
	"github.com/ajitpratap0/fetchcsv/pkg/models"
	"github.com/ajitpratap0/fetchcsv/pkg/observability"
)

// FetchConfig describes one logical fetch
type FetchConfig struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int

	// InitialBackoff is the first delay; it doubles after every failure
	InitialBackoff time.Duration
	// MaxBackoff caps a single delay; zero leaves it uncapped
	MaxBackoff time.Duration
	// RetryMalformed also retries 2xx responses whose body is not JSON
	RetryMalformed bool
}

// Validate checks the config before any request is made
func (c FetchConfig) Validate() error {
	if c.URL == "" {
		return nerrors.New(nerrors.ErrorTypeConfig, "url is required")
	}
	if c.MaxRetries < 1 {
		return nerrors.Newf(nerrors.ErrorTypeConfig, "retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.Timeout <= 0 {
		return nerrors.Newf(nerrors.ErrorTypeConfig, "timeout must be positive, got %s", c.Timeout)
	}
	if c.InitialBackoff < 0 || c.MaxBackoff < 0 {
		return nerrors.New(nerrors.ErrorTypeConfig, "backoff durations must not be negative")
	}
	return nil
}

// Policy returns the retry schedule described by the config
func (c FetchConfig) Policy() *RetryPolicy {
	policy := DefaultRetryPolicy()
	policy.MaxAttempts = c.MaxRetries
	if c.InitialBackoff > 0 {
		policy.InitialDelay = c.InitialBackoff
	}
	return policy.WithMaxDelay(c.MaxBackoff)
}

// Getter performs a single bounded GET
type Getter interface {
	Get(ctx context.Context, url string, timeout time.Duration) (*clients.Response, error)
}

// SleepFunc waits between attempts
type SleepFunc func(ctx context.Context, d time.Duration) error

// Fetcher runs the retry loop
type Fetcher struct {
	client  Getter
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
	sleep   SleepFunc
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithMetrics records every attempt on collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(f *Fetcher) { f.metrics = collector }
}

// WithTracer records spans for the fetch and each attempt
func WithTracer(tracer trace.Tracer) Option {
	return func(f *Fetcher) { f.tracer = tracer }
}

// WithSleep replaces the inter-attempt sleep
func WithSleep(sleep SleepFunc) Option {
	return func(f *Fetcher) { f.sleep = sleep }
}

// New creates a Fetcher using client for requests
func New(client Getter, logger *zap.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		client: client,
		logger: logger.With(zap.String("component", "fetcher")),
		tracer: noop.NewTracerProvider().Tracer(observability.TracerName),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// attemptResult is the outcome of one attempt: a document or a typed error
type attemptResult struct {
	value models.Value
	err   error
}

// Fetch retrieves and parses the document at cfg.URL. Every failed attempt
// logs one warning. When the budget is spent the error is
// ErrorTypeFetchExhausted wrapping the last attempt's failure.
func (f *Fetcher) Fetch(ctx context.Context, cfg FetchConfig) (value models.Value, err error) {
	if err := cfg.Validate(); err != nil {
		return models.Value{}, err
	}

	ctx, span := f.tracer.Start(ctx, "fetch", trace.WithAttributes(
		attribute.String("http.url", cfg.URL),
		attribute.Int("fetch.max_attempts", cfg.MaxRetries),
	))
	defer func() { observability.EndSpan(span, err) }()

	policy := cfg.Policy()
	var last error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result := f.attempt(ctx, cfg, attempt)
		if result.err == nil {
			span.SetAttributes(attribute.Int("fetch.attempts", attempt))
			return result.value, nil
		}
		last = result.err

		f.logFailure(cfg, attempt, policy.MaxAttempts, result.err)

		if !f.retryable(cfg, result.err) {
			return models.Value{}, result.err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		delay := policy.Delay(attempt)
		f.logger.Debug("backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Duration("max_total_backoff", policy.TotalDelay()))
		if err := f.sleep(ctx, delay); err != nil {
			return models.Value{}, nerrors.Wrap(err, nerrors.ErrorTypeInternal, "fetch cancelled").
				WithDetail("url", cfg.URL).
				WithDetail("attempts", attempt)
		}
	}

	return models.Value{}, nerrors.Wrap(last, nerrors.ErrorTypeFetchExhausted,
		fmt.Sprintf("failed to fetch %s after %d attempts", cfg.URL, policy.MaxAttempts)).
		WithDetail("url", cfg.URL).
		WithDetail("attempts", policy.MaxAttempts)
}

// attempt performs one GET and classifies the outcome
func (f *Fetcher) attempt(ctx context.Context, cfg FetchConfig, n int) (result attemptResult) {
	ctx, span := f.tracer.Start(ctx, "fetch.attempt", trace.WithAttributes(attribute.Int("fetch.attempt", n)))
	timer := metrics.NewTimer()
	defer func() {
		outcome := "success"
		if result.err != nil {
			outcome = string(nerrors.TypeOf(result.err))
		}
		if f.metrics != nil {
			f.metrics.RecordFetchAttempt(outcome, timer.Stop())
		}
		observability.EndSpan(span, result.err, attribute.String("fetch.outcome", outcome))
	}()

	resp, err := f.client.Get(ctx, cfg.URL, cfg.Timeout)
	if err != nil {
		if nerrors.TypeOf(err) == nerrors.ErrorTypeInternal {
			err = nerrors.Wrap(err, nerrors.ErrorTypeTransport, "request failed")
		}
		return attemptResult{err: err}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return attemptResult{err: nerrors.Newf(nerrors.ErrorTypeHTTPStatus, "HTTP %d from %s", resp.StatusCode, cfg.URL).
			WithDetail("status", resp.StatusCode)}
	}

	value, err := models.Parse(resp.Body)
	if err != nil {
		return attemptResult{err: nerrors.Wrap(err, nerrors.ErrorTypeMalformedResponse, "response is not valid JSON").
			WithDetail("url", cfg.URL).
			WithDetail("bytes", len(resp.Body))}
	}
	return attemptResult{value: value}
}

func (f *Fetcher) retryable(cfg FetchConfig, err error) bool {
	if cfg.RetryMalformed && nerrors.IsType(err, nerrors.ErrorTypeMalformedResponse) {
		return true
	}
	return nerrors.IsRetryable(err)
}

func (f *Fetcher) logFailure(cfg FetchConfig, attempt, maxAttempts int, err error) {
	fields := []zap.Field{
		zap.String("url", cfg.URL),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", maxAttempts),
	}

	var e *nerrors.Error
	if errors.As(err, &e) && e.Type == nerrors.ErrorTypeHTTPStatus {
		fields = append(fields, zap.Any("status", e.Details["status"]))
		f.logger.Warn(fmt.Sprintf("%s (attempt %d/%d)", e.Message, attempt, maxAttempts), fields...)
		return
	}

	msg := "Request error"
	if nerrors.IsType(err, nerrors.ErrorTypeMalformedResponse) {
		msg = "Malformed response"
	}
	f.logger.Warn(fmt.Sprintf("%s (attempt %d/%d)", msg, attempt, maxAttempts), append(fields, zap.Error(err))...)
}
