package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BuildFunc turns an edge-node identifier into the request to send to it.
type BuildFunc func(node string) Target

// Dispatcher fans warm requests out across edge nodes with a bounded worker pool.
//
// A Dispatcher holds no per-batch state and may run several batches
// concurrently; each call to [Dispatcher.Dispatch] gets its own pool.
type Dispatcher struct {
	client         *Client
	maxConcurrency int
	logger         *slog.Logger
}

// NewDispatcher creates a [Dispatcher].
//
// Parameters:
//   - client: Client used for every warm request
//   - maxConcurrency: Maximum number of requests in flight at once (values < 1 are treated as 1)
//   - logger: Logger for panic recovery
func NewDispatcher(client *Client, maxConcurrency int, logger *slog.Logger) *Dispatcher {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		client:         client,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Dispatch warms every node and streams one [Result] per node.
//
// Dispatch is non-blocking. Results are sent as soon as each request
// completes, in no particular order. The returned channel is closed after the
// last result; callers must drain it.
//
// Cancelling ctx does not drop nodes: requests not yet sent fail immediately
// with a transport failure, so every node still yields exactly one Result.
func (d *Dispatcher) Dispatch(ctx context.Context, nodes []string, build BuildFunc) <-chan Result {
	results := make(chan Result, len(nodes))

	workers := d.maxConcurrency
	if workers > len(nodes) {
		workers = len(nodes)
	}

	jobs := make(chan string, len(nodes))
	for _, node := range nodes {
		jobs <- node
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for node := range jobs {
				results <- d.warmNode(ctx, node, build)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// warmNode warms a single node. A panic anywhere in building or sending the
// request is converted into an unknown failure for this node only.
func (d *Dispatcher) warmNode(ctx context.Context, node string, build BuildFunc) (result Result) {
	result = Result{Node: node}

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()

			d.logger.Error("warm task panic",
				"correlation_id", correlationID,
				"node", node,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)

			result.CheckedAt = time.Now()
			result.StatusCode = 0
			result.Failure = unknownFailure(fmt.Sprintf("panic: %v (correlation_id: %s)", r, correlationID))
		}
	}()

	target := build(node)
	result.URL = target.URL
	result.Host = target.Host

	resp := d.client.Fetch(ctx, target)

	result.StatusCode = resp.StatusCode
	result.Latency = resp.Latency
	result.CheckedAt = time.Now()
	result.Failure = resp.Failure
	return result
}
