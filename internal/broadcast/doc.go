// Package broadcast implements the realtime WebSocket fan-out using the actor pattern.
//
// The Broadcaster owns the live connection set in a single goroutine fed by a
// command channel (no mutexes). New connections receive a history replay frame
// first; each message is then fanned out to every open connection. Per-connection
// write goroutines absorb slow clients, which are evicted when their buffer fills.
package broadcast
