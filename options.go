package prewarm

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HTTPDoer sends HTTP requests. [http.Client] satisfies it.
//
// Supply a custom HTTPDoer with [WithHTTPClient] to control transport
// settings or to observe requests in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// warmerConfig holds mutable state during Warmer construction.
type warmerConfig struct {
	catalog          []string
	maxConcurrency   int
	requestTimeout   time.Duration
	port             int
	logger           *slog.Logger
	httpClient       HTTPDoer
	outcomeCallbacks []func(Outcome)
}

// Option is a function that configures a [Warmer] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*warmerConfig) error

// WithCatalog replaces the built-in edge-node catalog.
//
// Order is irrelevant and duplicates are allowed; each entry is warmed
// independently. Calling WithCatalog more than once keeps the last list.
//
// Example:
//
//	w, err := prewarm.New(
//	    prewarm.WithCatalog("IAD89-C1", "FRA2-C1", "NRT20-C1"),
//	)
//
// Returns an error if the list is empty or contains an empty identifier.
func WithCatalog(nodes ...string) Option {
	return func(cfg *warmerConfig) error {
		if len(nodes) == 0 {
			return errors.New("catalog must contain at least one node")
		}
		for i, n := range nodes {
			if n == "" {
				return fmt.Errorf("catalog[%d]: node identifier cannot be empty", i)
			}
		}
		cfg.catalog = append([]string(nil), nodes...)
		return nil
	}
}

// WithMaxConcurrency sets the maximum number of warm requests in flight.
//
// Defaults to 100 if not specified.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *warmerConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithRequestTimeout bounds each warm request.
//
// Defaults to 30 seconds. Zero disables the per-request bound, leaving only
// the HTTP client's own limits. Requests are never retried.
//
// Returns an error if the duration is negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *warmerConfig) error {
		if d < 0 {
			return errors.New("request timeout cannot be negative")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithPort sets the HTTP port used by [Warmer.Serve].
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *warmerConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Warmer.
//
// Every node outcome is logged as one record through this logger. If not
// specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *warmerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithHTTPClient sets the client used for warm requests.
//
// If not specified, a pooled *http.Client is used.
//
// Returns an error if the client is nil.
func WithHTTPClient(client HTTPDoer) Option {
	return func(cfg *warmerConfig) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = client
		return nil
	}
}

// WithOutcomeCallback registers a function to be called for every node outcome.
//
// Callbacks run as soon as each node finishes, before [Warmer.Warm] returns,
// in registration order and from a single goroutine. Slow callbacks delay the
// handling of subsequent outcomes but never the requests themselves.
//
// Panics within callbacks are recovered and logged.
//
// Example:
//
//	w, err := prewarm.New(
//	    prewarm.WithOutcomeCallback(func(o prewarm.Outcome) {
//	        if !o.Succeeded {
//	            failed.Add(1)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithOutcomeCallback(cb func(Outcome)) Option {
	return func(cfg *warmerConfig) error {
		if cb == nil {
			return nil
		}
		cfg.outcomeCallbacks = append(cfg.outcomeCallbacks, cb)
		return nil
	}
}
