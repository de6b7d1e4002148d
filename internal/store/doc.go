// Package store keeps the latest warm outcome per edge node.
//
// This package is internal to prewarm. It holds an in-memory view of the most
// recent attempt against each node and publishes every update to subscribers,
// which the HTTP trigger server streams over Server-Sent Events.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [NodeOutcome]: Storage representation of one node's latest outcome
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the dispatcher).
package store
