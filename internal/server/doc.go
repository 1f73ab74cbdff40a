// Package server provides the HTTP server for the searchwatch dashboard and API.
//
// This package is internal to searchwatch and handles all HTTP concerns:
//
//   - Dashboard: the embedded HTML page at "/"
//   - REST API: "/api/status" and "/api/status/{key}" snapshots
//   - Server-Sent Events: live status updates at "/api/sse"
//   - Force search: "POST /api/episodes/{key}/search"
//
// Routes are registered on a gorilla/mux router. The server shuts down
// gracefully on context cancellation with a 5-second timeout.
package server
