package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "unused"))
}

func TestWrap_PreservesStackAndCause(t *testing.T) {
	inner := New(ErrorTypeHTTPStatus, "unexpected status 500")
	outer := Wrap(inner, ErrorTypeFetchExhausted, "failed to fetch")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
	assert.Equal(t, "fetch_exhausted: failed to fetch: http_status: unexpected status 500", outer.Error())
}

func TestWrap_StdlibCause(t *testing.T) {
	err := Wrap(io.EOF, ErrorTypeTransport, "read failed")

	assert.True(t, stderrors.Is(err, io.EOF))
	assert.NotEmpty(t, err.Stack)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "transport", err: New(ErrorTypeTransport, "dial tcp"), want: true},
		{name: "http status", err: New(ErrorTypeHTTPStatus, "503"), want: true},
		{name: "malformed", err: New(ErrorTypeMalformedResponse, "bad json"), want: false},
		{name: "exhausted wrapping transport", err: Wrap(New(ErrorTypeTransport, "x"), ErrorTypeFetchExhausted, "done"), want: false},
		{name: "untyped", err: io.EOF, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(io.EOF))
	assert.Equal(t, ErrorTypeIO, TypeOf(Newf(ErrorTypeIO, "cannot create %s", "dir")))
	assert.True(t, IsType(New(ErrorTypeConfig, "url is required"), ErrorTypeConfig))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeFetchExhausted, "failed").
		WithDetail("url", "http://example.test").
		WithDetail("attempts", 3)

	assert.Equal(t, "http://example.test", err.Details["url"])
	assert.Equal(t, 3, err.Details["attempts"])
}
