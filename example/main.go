// Example program that warms a file across a handful of edge nodes served by
// a local mock edge, then keeps the HTTP trigger running.
//
// Usage:
//
//	go run ./example
//
// Then in another terminal:
//
//	curl -X POST localhost:8080/api/warm \
//	  -d '{"filename":"/img/hero.jpg","cloudfront_url":"d111.cloudfront.net"}'
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/prewarm"
)

func main() {
	go StartMockEdge("localhost:9999")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	w, err := prewarm.New(
		prewarm.WithCatalog("IAD89-C1", "FRA2-C1", "NRT20-C1", "GRU3-C1", "SYD4-C1"),
		prewarm.WithMaxConcurrency(3),
		prewarm.WithHTTPClient(&http.Client{Transport: edgeTransport{addr: "localhost:9999"}}),
		prewarm.WithLogger(logger),
		prewarm.WithPort(8080),
	)
	if err != nil {
		logger.Error("failed to create warmer", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resp := w.Warm(ctx, prewarm.Invocation{
		Filename:      "/img/hero.jpg",
		CloudFrontURL: "d111.cloudfront.net",
	})
	out, _ := json.MarshalIndent(resp, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	if err := w.Serve(ctx); err != nil {
		logger.Error("serve error", "error", err)
		os.Exit(1)
	}
}
