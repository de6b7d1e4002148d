package dispatch

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// FailureKind classifies why a warm request did not succeed.
type FailureKind string

const (
	// FailureHTTPStatus means the edge answered with an error status (>= 400).
	FailureHTTPStatus FailureKind = "http_status"

	// FailureTransport means no usable response was obtained: DNS, connect,
	// TLS, timeout, reset or cancellation.
	FailureTransport FailureKind = "transport"

	// FailureUnknown covers everything else, such as a request that could not
	// be constructed or a panic inside the task.
	FailureUnknown FailureKind = "unknown"
)

// Failure describes a failed warm attempt.
type Failure struct {
	Kind FailureKind

	// StatusCode is set for FailureHTTPStatus.
	StatusCode int

	// Reason is a human-readable description of the failure.
	Reason string
}

// Error implements error so a Failure can be logged or wrapped directly.
func (f *Failure) Error() string {
	if f.Kind == FailureHTTPStatus {
		return fmt.Sprintf("%s: %d", f.Kind, f.StatusCode)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

func httpStatusFailure(code int) *Failure {
	return &Failure{
		Kind:       FailureHTTPStatus,
		StatusCode: code,
		Reason:     fmt.Sprintf("HTTPError: %d", code),
	}
}

func transportFailure(err error) *Failure {
	return &Failure{
		Kind:   FailureTransport,
		Reason: transportReason(err),
	}
}

func unknownFailure(msg string) *Failure {
	return &Failure{
		Kind:   FailureUnknown,
		Reason: msg,
	}
}

// transportReason strips the "Get \"url\":" prefix that *url.Error adds; the
// URL is logged separately.
func transportReason(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}

// Target is a single per-node warm request.
type Target struct {
	// Node is the edge-node identifier the request is aimed at.
	Node string

	// URL is the direct-to-edge URL.
	URL string

	// Host is the virtual host sent in the Host header.
	Host string
}

// Result is the outcome of warming one node.
//
// Exactly one Result is produced per dispatched node. Results never share
// mutable state.
type Result struct {
	Node       string
	URL        string
	Host       string
	StatusCode int
	Latency    time.Duration
	CheckedAt  time.Time

	// Failure is nil when the warm request succeeded.
	Failure *Failure
}

// Succeeded reports whether the warm request got a non-error response.
func (r Result) Succeeded() bool {
	return r.Failure == nil
}
