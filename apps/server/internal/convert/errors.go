package convert

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a conversion failure. Handlers and metrics switch on it.
type ErrorKind string

const (
	KindInvalidRequest       ErrorKind = "InvalidRequest"
	KindUnauthenticated      ErrorKind = "Unauthenticated"
	KindUpstreamUnauthorized ErrorKind = "UpstreamUnauthorized"
	KindUpstreamNotFound     ErrorKind = "UpstreamNotFound"
	KindUpstreamRateLimited  ErrorKind = "UpstreamRateLimited"
	KindUpstreamTransport    ErrorKind = "UpstreamTransportError"
	KindUpstreamTimeout      ErrorKind = "UpstreamTimeout"
	KindInternal             ErrorKind = "Internal"
)

// UpstreamError is returned by ContentFetcher implementations when the remote
// content API rejects or fails a call.
type UpstreamError struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %q: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying transport or API error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// TraversalError records which path was being processed when the walk aborted.
type TraversalError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *TraversalError) Error() string {
	return fmt.Sprintf("traverse %q: %v", e.Path, e.Err)
}

// Unwrap returns the error that aborted the traversal.
func (e *TraversalError) Unwrap() error {
	return e.Err
}

// InvalidRequestError is returned when a conversion request is missing required input.
type InvalidRequestError struct {
	Reason string
}

// Error implements the error interface.
func (e InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// UnauthenticatedError is returned when a conversion request carries no credential.
type UnauthenticatedError struct{}

// Error implements the error interface.
func (UnauthenticatedError) Error() string {
	return "authentication required"
}

// ErrRecordingDisabled is returned by Service.Overview when no EventRecorder is configured.
var ErrRecordingDisabled = errors.New("conversion recording is disabled")

// KindOf reports the ErrorKind carried anywhere in err's chain.
// A bare context deadline maps to KindUpstreamTimeout; anything unrecognised is KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Kind
	}
	var invalid InvalidRequestError
	if errors.As(err, &invalid) {
		return KindInvalidRequest
	}
	var unauth UnauthenticatedError
	if errors.As(err, &unauth) {
		return KindUnauthenticated
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUpstreamTimeout
	}
	return KindInternal
}
