package prewarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/prewarm/internal/dispatch"
	"github.com/jpalmerr/prewarm/internal/server"
	"github.com/jpalmerr/prewarm/internal/store"
)

const (
	defaultMaxConcurrency = 100
	defaultRequestTimeout = 30 * time.Second
	defaultPort           = 8080
)

// Warmer pre-populates a file in every edge location of a CloudFront distribution.
//
// A Warmer is created with [New] and is safe for concurrent use: each call
// to [Warmer.Warm] runs its own bounded worker pool over the catalog.
//
// The typical lifecycle is:
//
//	w, err := prewarm.New(prewarm.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	resp := w.Warm(ctx, prewarm.Invocation{
//	    Filename:      "/test/example.jpg",
//	    CloudFrontURL: "example.cloudfront.net",
//	})
type Warmer struct {
	catalog          []string
	maxConcurrency   int
	requestTimeout   time.Duration
	port             int
	logger           *slog.Logger
	outcomeCallbacks []func(Outcome)

	client     *dispatch.Client
	dispatcher *dispatch.Dispatcher
	store      *store.MemoryStore
}

// New creates a [Warmer] with the given options.
//
// Defaults:
//   - Catalog: [DefaultCatalog]
//   - Max concurrency: 100
//   - Request timeout: 30 seconds
//   - Port: 8080
//   - Logger: [slog.Default]
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Warmer, error) {
	cfg := &warmerConfig{
		maxConcurrency: defaultMaxConcurrency,
		requestTimeout: defaultRequestTimeout,
		port:           defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.catalog == nil {
		cfg.catalog = DefaultCatalog()
	}
	if len(cfg.catalog) == 0 {
		return nil, errors.New("at least one edge node is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var doer dispatch.HTTPDoer
	if cfg.httpClient != nil {
		doer = cfg.httpClient
	}
	client := dispatch.NewClient(doer, cfg.requestTimeout)

	return &Warmer{
		catalog:          cfg.catalog,
		maxConcurrency:   cfg.maxConcurrency,
		requestTimeout:   cfg.requestTimeout,
		port:             cfg.port,
		logger:           logger,
		outcomeCallbacks: cfg.outcomeCallbacks,
		client:           client,
		dispatcher:       dispatch.NewDispatcher(client, cfg.maxConcurrency, logger),
		store:            store.NewMemoryStore(),
	}, nil
}

// Warm sends one warm request to every node in the catalog and waits for all
// of them to finish.
//
// Warm never returns an error value; every failure is reported in the
// [Response]:
//   - 400 when Filename or CloudFrontURL is missing. Nothing is dispatched.
//   - 500 when setup fails before or while submitting the batch.
//   - 200 once every node has been attempted, with a [Summary] of outcomes.
//
// Each node's [Outcome] is logged, recorded and passed to outcome callbacks
// as soon as that node finishes. Per-node failures never affect other nodes
// and are never retried.
//
// Cancelling ctx fails requests that have not completed yet; each node still
// produces exactly one outcome.
func (w *Warmer) Warm(ctx context.Context, inv Invocation) (resp Response) {
	invocationID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("warm setup failed",
				"invocation_id", invocationID,
				"panic", fmt.Sprintf("%v", r),
			)
			resp = setupFailure(invocationID, fmt.Errorf("%v", r))
		}
	}()

	if err := inv.Validate(); err != nil {
		var missing *MissingParameterError
		if errors.As(err, &missing) {
			w.logger.Error("missing required parameters",
				"invocation_id", invocationID,
				"fields", missing.Fields,
				"messages", missing.Messages,
			)
			return Response{
				StatusCode:   http.StatusBadRequest,
				Body:         "Missing required parameters: " + strings.Join(missing.Fields, ", "),
				InvocationID: invocationID,
			}
		}
		w.logger.Error("invocation validation failed", "invocation_id", invocationID, "error", err)
		return setupFailure(invocationID, err)
	}

	if len(w.catalog) == 0 {
		return setupFailure(invocationID, errors.New("edge-node catalog is empty"))
	}

	distributionID := inv.DistributionID()

	w.logger.Info("warm started",
		"invocation_id", invocationID,
		"filename", inv.Filename,
		"cloudfront_url", inv.CloudFrontURL,
		"distribution_id", distributionID,
		"nodes", len(w.catalog),
		"max_concurrency", w.maxConcurrency,
	)

	start := time.Now()
	results := w.dispatcher.Dispatch(ctx, w.catalog, func(node string) dispatch.Target {
		req := BuildWarmRequest(node, distributionID, inv.CloudFrontURL, inv.Filename)
		return dispatch.Target{Node: req.Node, URL: req.TargetURL, Host: req.Host}
	})

	summary := &Summary{}
	for result := range results {
		outcome := dispatchResultToOutcome(invocationID, result)
		w.record(outcome)

		summary.Total++
		if outcome.Succeeded {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		if summary.FailuresByKind == nil {
			summary.FailuresByKind = make(map[FailureKind]int)
		}
		summary.FailuresByKind[outcome.Failure.Kind]++
	}
	summary.Duration = time.Since(start)

	w.logger.Info("warm finished",
		"invocation_id", invocationID,
		"filename", inv.Filename,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration_ms", summary.Duration.Milliseconds(),
	)

	return Response{
		StatusCode:   http.StatusOK,
		Body:         "Submitted warm requests for " + inv.Filename,
		InvocationID: invocationID,
		Summary:      summary,
	}
}

// InvokeJSON decodes a function-trigger payload and runs [Warmer.Warm].
//
// A payload that is not a JSON object with string fields yields a 400
// response without dispatching anything.
func (w *Warmer) InvokeJSON(ctx context.Context, payload []byte) Response {
	var inv Invocation
	if err := json.Unmarshal(payload, &inv); err != nil {
		w.logger.Error("invalid invocation payload", "error", err)
		return Response{
			StatusCode: http.StatusBadRequest,
			Body:       "Invalid invocation payload: " + err.Error(),
		}
	}
	return w.Warm(ctx, inv)
}

// Serve runs the HTTP trigger until ctx is cancelled.
//
// See the internal server package for routes. Serve is a blocking call and
// returns nil on graceful shutdown, or an error if the listener cannot be
// bound. On cancellation Serve stops accepting invocations and waits for
// batches already running to finish, for at most five seconds.
func (w *Warmer) Serve(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	srv := server.NewServer(w.store, w.port, w.serveWarm, w.logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	w.logger.Info("warm trigger listening",
		"url", fmt.Sprintf("http://localhost:%d/api/warm", w.port),
		"nodes", len(w.catalog),
	)

	<-ctx.Done()
	// in-flight batches are detached from ctx; let them finish before returning
	<-srv.Done()
	w.Close()
	w.logger.Info("warm trigger stopped")
	return nil
}

func (w *Warmer) serveWarm(ctx context.Context, payload []byte) (int, any) {
	resp := w.InvokeJSON(ctx, payload)
	return resp.StatusCode, resp
}

// Close releases idle connections held by the default HTTP client.
// The Warmer remains usable afterwards.
func (w *Warmer) Close() {
	w.client.Close()
}

// Catalog returns a copy of the edge-node catalog.
func (w *Warmer) Catalog() []string {
	cp := make([]string, len(w.catalog))
	copy(cp, w.catalog)
	return cp
}

// Outcomes returns the latest outcome recorded for each node, ordered by node.
//
// Outcomes persist across invocations for the life of the Warmer; a node
// warmed twice reports only its most recent attempt.
func (w *Warmer) Outcomes() []Outcome {
	stored := w.store.GetAll()
	out := make([]Outcome, 0, len(stored))
	for _, n := range stored {
		out = append(out, nodeOutcomeToOutcome(n))
	}
	return out
}

// MaxConcurrency returns the maximum number of warm requests in flight.
func (w *Warmer) MaxConcurrency() int {
	return w.maxConcurrency
}

// RequestTimeout returns the per-request timeout; zero means none.
func (w *Warmer) RequestTimeout() time.Duration {
	return w.requestTimeout
}

// Port returns the port used by [Warmer.Serve].
func (w *Warmer) Port() int {
	return w.port
}

// record logs an outcome, stores it and invokes callbacks, in that order.
func (w *Warmer) record(o Outcome) {
	attrs := []any{
		"invocation_id", o.InvocationID,
		"node", o.Node,
		"url", o.URL,
		"status_code", o.StatusCode,
		"latency_ms", o.Latency.Milliseconds(),
	}
	if o.Succeeded {
		w.logger.Info("warm succeeded", attrs...)
	} else {
		w.logger.Error("warm failed", append(attrs,
			"failure", o.Failure.Kind.String(),
			"reason", o.Failure.Reason,
		)...)
	}

	w.store.Update(outcomeToNodeOutcome(o))

	for _, cb := range w.outcomeCallbacks {
		invokeCallbackSafe(cb, o, w.logger)
	}
}

func setupFailure(invocationID string, err error) Response {
	return Response{
		StatusCode:   http.StatusInternalServerError,
		Body:         "Error during warm: " + err.Error(),
		InvocationID: invocationID,
	}
}

// dispatchResultToOutcome converts an internal dispatch result to the public type.
func dispatchResultToOutcome(invocationID string, r dispatch.Result) Outcome {
	o := Outcome{
		InvocationID: invocationID,
		Node:         r.Node,
		URL:          r.URL,
		Host:         r.Host,
		Succeeded:    r.Succeeded(),
		StatusCode:   r.StatusCode,
		Latency:      r.Latency,
		CheckedAt:    r.CheckedAt,
	}
	if r.Failure != nil {
		o.Failure = &Failure{
			Kind:       FailureKind(r.Failure.Kind),
			StatusCode: r.Failure.StatusCode,
			Reason:     r.Failure.Reason,
		}
	}
	return o
}

// outcomeToNodeOutcome converts a public outcome to its storage representation.
func outcomeToNodeOutcome(o Outcome) store.NodeOutcome {
	n := store.NodeOutcome{
		Node:           o.Node,
		URL:            o.URL,
		Host:           o.Host,
		Succeeded:      o.Succeeded,
		StatusCode:     o.StatusCode,
		ResponseTimeMs: o.Latency.Milliseconds(),
		CheckedAt:      o.CheckedAt,
		InvocationID:   o.InvocationID,
	}
	if o.Failure != nil {
		kind := o.Failure.Kind.String()
		reason := o.Failure.Reason
		n.Failure = &kind
		n.Reason = &reason
	}
	return n
}

func nodeOutcomeToOutcome(n store.NodeOutcome) Outcome {
	o := Outcome{
		InvocationID: n.InvocationID,
		Node:         n.Node,
		URL:          n.URL,
		Host:         n.Host,
		Succeeded:    n.Succeeded,
		StatusCode:   n.StatusCode,
		Latency:      time.Duration(n.ResponseTimeMs) * time.Millisecond,
		CheckedAt:    n.CheckedAt,
	}
	if n.Failure != nil {
		o.Failure = &Failure{Kind: FailureKind(*n.Failure), StatusCode: n.StatusCode}
		if n.Reason != nil {
			o.Failure.Reason = *n.Reason
		}
	}
	return o
}

// invokeCallbackSafe calls an outcome callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Outcome), o Outcome, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("outcome callback panicked",
				"panic", r,
				"node", o.Node,
			)
		}
	}()
	cb(o)
}
