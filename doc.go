// Package prewarm populates a file into every edge cache of a CloudFront
// distribution before real users ask for it.
//
// For one invocation, prewarm sends an HTTP GET for the file directly to
// each edge location (point of presence) in a catalog, addressing the edge
// by name while presenting the distribution's public hostname as the virtual
// host. Each edge then fetches and caches the file from the origin.
//
// # Quick Start
//
//	w, _ := prewarm.New(prewarm.WithLogger(logger))
//	defer w.Close()
//
//	resp := w.Warm(ctx, prewarm.Invocation{
//	    Filename:      "/test/example.jpg",
//	    CloudFrontURL: "example.cloudfront.net",
//	})
//	fmt.Println(resp.StatusCode, resp.Body)
//
// For node "IAD89-C1" the request above is:
//
//	GET http://example.IAD89-C1.cloudfront.net/test/example.jpg
//	Host: example.cloudfront.net
//
// # Configuration
//
// prewarm uses the functional options pattern:
//
//	w, err := prewarm.New(
//	    prewarm.WithCatalog("IAD89-C1", "FRA2-C1", "NRT20-C1"),
//	    prewarm.WithMaxConcurrency(20),
//	    prewarm.WithRequestTimeout(10 * time.Second),
//	    prewarm.WithOutcomeCallback(func(o prewarm.Outcome) { ... }),
//	)
//
// # Outcomes
//
// Every catalog entry yields exactly one [Outcome]. A node failure is
// classified as [FailureHTTPStatus], [FailureTransport] or [FailureUnknown],
// logged, and never affects other nodes. Failures are not retried.
//
// # Architecture
//
// prewarm consists of several internal packages (under internal/):
//
//   - internal/dispatch: Bounded worker-pool fan-out of warm requests
//   - internal/store: In-memory latest outcome per node with pub/sub
//   - internal/server: HTTP trigger with a JSON API and Server-Sent Events
//
// The internal packages are not part of the public API and may change
// without notice.
package prewarm
