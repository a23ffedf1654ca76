// Package clients provides the HTTP client used to fetch JSON documents
package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	nerrors "github.com/ajitpratap0/fetchcsv/pkg/errors"
)

// DefaultMaxBodyBytes caps how much of a response body is read
const DefaultMaxBodyBytes int64 = 64 << 20

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Timeouts
	RequestTimeout      time.Duration
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
	KeepAlive           time.Duration

	// Protocol settings
	EnableHTTP2  bool
	MaxRedirects int

	// Request settings
	UserAgent    string
	Accept       string
	MaxBodyBytes int64
}

// DefaultHTTPConfig returns the default client configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		RequestTimeout:      10 * time.Second,
		DialTimeout:         30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		KeepAlive:           30 * time.Second,
		EnableHTTP2:         true,
		MaxRedirects:        10,
		UserAgent:           "fetchcsv/dev",
		Accept:              "application/json",
		MaxBodyBytes:        DefaultMaxBodyBytes,
	}
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// HTTPClient performs bounded GET requests
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	transport  *http.Transport
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(config *HTTPConfig, logger *zap.Logger) *HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &HTTPClient{
		config: config,
		logger: logger.With(zap.String("component", "http_client")),
	}

	client.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(client.transport); err != nil {
			client.logger.Debug("failed to configure HTTP/2", zap.Error(err))
		}
	}

	maxRedirects := config.MaxRedirects
	client.httpClient = &http.Client{
		Transport: client.transport,
		Timeout:   config.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return client
}

// Get performs one GET request and reads the whole body, all within
// timeout. A zero timeout falls back to the configured request timeout.
//
// Transport failures, including an expired timeout or a body cut short,
// are returned as ErrorTypeTransport. A body larger than MaxBodyBytes is
// ErrorTypeMalformedResponse. Any status code is a successful Get.
func (c *HTTPClient) Get(ctx context.Context, url string, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = c.config.RequestTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrorTypeConfig, "invalid request").
			WithDetail("url", url)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.Accept != "" {
		req.Header.Set("Accept", c.config.Accept)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrorTypeTransport, "request failed").
			WithDetail("url", url)
	}
	defer resp.Body.Close()

	limit := c.config.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrorTypeTransport, "failed to read response body").
			WithDetail("url", url)
	}
	if int64(len(body)) > limit {
		return nil, nerrors.Newf(nerrors.ErrorTypeMalformedResponse, "response body exceeds %d bytes", limit).
			WithDetail("url", url)
	}

	duration := time.Since(start)
	c.logger.Debug("response received",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", duration))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Duration:   duration,
	}, nil
}

// Close releases idle connections
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
