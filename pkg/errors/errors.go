// Package errors provides structured error handling for fetchcsv.
//
// Every failure that crosses a component boundary is an *Error carrying an
// ErrorType. The type drives the fetch retry decision (IsRetryable) and is
// the only thing the pipeline driver needs to know to report a failure.
//
//	if err := resp.Body.Close(); err != nil {
//	    return errors.Wrap(err, errors.ErrorTypeTransport, "failed to close body").
//	        WithDetail("url", url)
//	}
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeTransport represents connection, timeout and DNS failures
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeHTTPStatus represents a response outside the 2xx range
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeMalformedResponse represents a 2xx body that is not valid JSON
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	// ErrorTypeFetchExhausted represents a fetch that ran out of attempts
	ErrorTypeFetchExhausted ErrorType = "fetch_exhausted"
	// ErrorTypeEmptyResult represents a row set that is empty after truncation
	ErrorTypeEmptyResult ErrorType = "empty_result"
	// ErrorTypeIO represents destination directory or file failures
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal represents internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// Error represents a structured error with context.
//
// Fields:
//   - Type: categorizes the error for handling strategies
//   - Message: human-readable description
//   - Cause: the underlying error, if any
//   - Details: key-value pairs for logs
//   - Stack: call stack at the point of creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context. If the error is
// already an *Error its stack is preserved. Returns nil for a nil error.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable reports whether a fetch attempt that failed with err may be
// attempted again. Only the outermost *Error in the chain is consulted, so
// a retryable cause wrapped by a terminal error is terminal.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeTransport, ErrorTypeHTTPStatus:
		return true
	default:
		return false
	}
}

// IsType checks if the outermost *Error in the chain is of the given type
func IsType(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

// TypeOf returns the type of the outermost *Error in the chain, or
// ErrorTypeInternal for errors that carry no type.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
