package store

import "time"

// NodeOutcome is the latest warm outcome recorded for one edge node.
//
// NodeOutcome is the storage representation of a warm result, optimized for
// JSON serialization (used by the REST API and SSE). It is decoupled from the
// dispatcher's internal types to allow independent evolution.
type NodeOutcome struct {
	// Node is the edge-node identifier.
	Node string `json:"node"`

	// URL is the direct-to-edge URL that was requested.
	URL string `json:"url"`

	// Host is the virtual host sent with the request.
	Host string `json:"host"`

	// Succeeded reports whether the edge answered with a non-error status.
	Succeeded bool `json:"succeeded"`

	// StatusCode is the HTTP status code, zero when no response was received.
	StatusCode int `json:"status_code"`

	// ResponseTimeMs is the request latency in milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// CheckedAt is the time the attempt finished.
	CheckedAt time.Time `json:"checked_at"`

	// InvocationID identifies the warm invocation that produced this outcome.
	InvocationID string `json:"invocation_id"`

	// Failure is the failure kind ("http_status", "transport", "unknown").
	// nil when the attempt succeeded.
	Failure *string `json:"failure"`

	// Reason describes the failure. nil when the attempt succeeded.
	Reason *string `json:"reason"`
}

// Store defines the interface for storing and subscribing to warm outcomes.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows outcomes to be pushed to connected clients (e.g., via
// Server-Sent Events) as soon as each node finishes.
type Store interface {
	// Update stores an outcome and notifies all subscribers.
	// Outcomes are keyed by Node, so subsequent updates replace previous values.
	Update(outcome NodeOutcome)

	// GetAll returns all currently stored outcomes ordered by node.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []NodeOutcome

	// Subscribe returns a channel that receives outcome updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan NodeOutcome

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan NodeOutcome)
}
