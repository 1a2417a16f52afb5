// Package server exposes the HTTP and WebSocket surface: the JSON API for
// subscribing and sending, the realtime upgrade endpoint, health and metrics.
package server
