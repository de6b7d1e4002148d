// Package dispatch fans cache-warming requests out to CDN edge nodes.
//
// This package is internal to prewarm. It implements a bounded worker pool
// that issues exactly one GET per edge node and classifies each attempt.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper that sends one warm request and classifies it
//   - [Dispatcher]: Worker pool that streams one [Result] per node
//   - [Target]: The per-node URL and virtual host
//   - [Failure]: Classified failure (http_status, transport, unknown)
//
// Users of the prewarm library should not need to interact with this
// package directly. Configuration is done through the main prewarm package.
package dispatch
