package prewarm

import "time"

// FailureKind classifies why warming a node failed.
//
// FailureKind is a string type so it serializes and logs readably.
type FailureKind string

const (
	// FailureHTTPStatus indicates the edge answered with an error status (>= 400).
	FailureHTTPStatus FailureKind = "http_status"

	// FailureTransport indicates no usable response was obtained: DNS lookup,
	// connect, TLS, timeout, connection reset or cancellation.
	FailureTransport FailureKind = "transport"

	// FailureUnknown indicates any other failure, such as a request that could
	// not be constructed from a malformed URL.
	FailureUnknown FailureKind = "unknown"
)

// String returns the string representation of the kind.
func (k FailureKind) String() string {
	return string(k)
}

// Failure describes why warming one node failed.
type Failure struct {
	// Kind is the failure classification.
	Kind FailureKind `json:"kind"`

	// StatusCode is the HTTP status returned by the edge for [FailureHTTPStatus].
	StatusCode int `json:"status_code,omitempty"`

	// Reason is a human-readable description of the failure.
	Reason string `json:"reason"`
}

// Outcome is the result of warming a single edge node.
//
// Exactly one Outcome is produced per catalog entry per invocation. An Outcome
// is immutable after creation and shares no state with other outcomes.
type Outcome struct {
	// InvocationID identifies the [Warmer.Warm] call that produced this outcome.
	InvocationID string `json:"invocation_id"`

	// Node is the edge-node identifier.
	Node string `json:"node"`

	// URL is the direct-to-edge URL that was requested.
	URL string `json:"url"`

	// Host is the virtual host sent in the Host header.
	Host string `json:"host"`

	// Succeeded reports whether the edge answered with a non-error status.
	Succeeded bool `json:"succeeded"`

	// Failure is nil when Succeeded is true.
	Failure *Failure `json:"failure,omitempty"`

	// StatusCode is the HTTP status code returned by the edge.
	// Zero if the request failed before receiving a response.
	StatusCode int `json:"status_code"`

	// Latency is the time taken by the request.
	Latency time.Duration `json:"latency"`

	// CheckedAt is when the attempt finished.
	CheckedAt time.Time `json:"checked_at"`
}

// Summary aggregates the outcomes of one invocation.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`

	// FailuresByKind counts failed nodes per [FailureKind].
	FailuresByKind map[FailureKind]int `json:"failures_by_kind,omitempty"`
}
