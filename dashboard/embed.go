// Package dashboard provides the embedded web UI assets for searchwatch.
//
// The page lists every watched episode with its last search result and
// status line, keeps itself current over Server-Sent Events, and offers a
// Search button that is disabled while a search is queued or running.
//
// The embedded assets are served by the server package at the root path ("/").
// Users of the searchwatch library should not need to interact with this
// package directly.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Main dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
