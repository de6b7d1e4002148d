package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxDrainBodySize bounds how much of a warm response is read before the body
// is closed. Reading lets the connection return to the pool.
const maxDrainBodySize = 1 << 20 // 1MB

// every edge node is a distinct host, so per-host limits only matter for
// duplicate catalog entries
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// HTTPDoer is the subset of [http.Client] used by [Client].
//
// Tests substitute instrumented implementations to observe requests and
// in-flight concurrency without touching the network.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response holds the result of a single warm request made by [Client].
type Response struct {
	// StatusCode is the HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Failure is nil when a response was received with a non-error status.
	Failure *Failure
}

// Client issues warm requests against edge nodes.
//
// Timeouts are applied per request via context rather than on the underlying
// http.Client so that a zero timeout can mean "client default".
type Client struct {
	doer    HTTPDoer
	timeout time.Duration
}

// NewClient creates a [Client].
//
// If doer is nil a pooled *http.Client is used. A timeout of zero leaves the
// request bounded only by the caller's context and the doer's own settings.
func NewClient(doer HTTPDoer, timeout time.Duration) *Client {
	if doer == nil {
		doer = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		}
	}
	return &Client{doer: doer, timeout: timeout}
}

// Fetch performs one GET to target.URL with the Host header set to
// target.Host and classifies the result.
//
// Fetch never returns an error; every failure is described by the returned
// Response's Failure field.
func (c *Client) Fetch(ctx context.Context, target Target) Response {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Failure: unknownFailure(fmt.Sprintf("failed to create request: %v", err)),
		}
	}
	// net/http ignores a "Host" entry in req.Header; the virtual host lives here
	req.Host = target.Host

	resp, err := c.doer.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Failure: transportFailure(err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBodySize)); err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Failure:    transportFailure(fmt.Errorf("failed to read response body: %w", err)),
		}
	}

	out := Response{
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
	if resp.StatusCode >= http.StatusBadRequest {
		out.Failure = httpStatusFailure(resp.StatusCode)
	}
	return out
}

// Close closes idle connections held by the default transport.
//
// Safe to call multiple times and on a nil receiver. Custom doers that are
// not *http.Client are left alone.
func (c *Client) Close() {
	if c == nil || c.doer == nil {
		return
	}
	if hc, ok := c.doer.(*http.Client); ok {
		hc.CloseIdleConnections()
	}
}
