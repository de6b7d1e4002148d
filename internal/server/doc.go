// Package server provides the HTTP trigger for prewarm.
//
// This package is internal to prewarm and handles all HTTP concerns:
//
//   - Invocation: POST /api/warm accepts the same JSON event a function
//     trigger would deliver ({"filename", "cloudfront_url"})
//   - REST API: JSON snapshot of the latest outcome per edge node at "/api/outcomes"
//   - Server-Sent Events: outcomes streamed at "/api/sse" as nodes finish
//
// Routing uses chi with CORS enabled for browser clients. The server supports
// graceful shutdown via context cancellation.
package server
