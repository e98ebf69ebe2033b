// Package server hosts the device hub over HTTP.
//
// The server binds a TCP listener, serves an http.Handler (normally
// sink.Hub's), and shuts down gracefully when its context is cancelled.
//
// # Usage Example
//
//	hub := sink.NewHub(registry)
//	srv := server.New(&server.Config{Host: "", Port: 8080}, hub.Handler())
//
//	// Start blocks until ctx is cancelled or the listener fails
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// When ctx is cancelled the server:
//  1. Stops accepting new connections
//  2. Runs the shutdown hooks (the hub closes its websocket clients)
//  3. Waits up to ShutdownTimeout for in-flight requests
//
// Websocket connections are hijacked and not tracked by net/http, so callers
// that serve websockets must register a hook that closes them.
package server
