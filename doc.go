// Package searchwatch follows manual episode searches on a Medusa server
// and shows their progress on a live dashboard.
//
// A manual search runs on the server in the background. searchwatch polls
// the server's search-status endpoint for each watched episode, adjusting
// the poll cadence to what the server reports (every 5 seconds while
// searching, every 7 while queued) and stopping once the search finishes.
// Forced searches can be started from the dashboard or through
// [Watcher.ForceSearch]; polling resumes two seconds later.
//
// # Quick Start
//
//	ep, _ := searchwatch.NewEpisode("tvdb", 101, 2, 5)
//	w, _ := searchwatch.New(
//	    searchwatch.WithServer("http://localhost:8081"),
//	    searchwatch.WithEpisode(ep),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	w.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// searchwatch uses the functional options pattern:
//
//	w, err := searchwatch.New(
//	    searchwatch.WithServer("https://nas.local/medusa"),
//	    searchwatch.WithHeaders("X-Api-Key", key),
//	    searchwatch.WithEpisodes(episodes...),
//	    searchwatch.WithMaxErrorTicks(20),
//	    searchwatch.WithUpdateCallback(func(u searchwatch.Update) {
//	        log.Println(u.Episode.Key(), u.Message)
//	    }),
//	)
//
// Episodes are built with [NewEpisode], [ParseEpisode] or [NewEpisodeGrid].
//
// # Result Extractors
//
// By default the search state is read from the top-level "result" field of
// the status response. [JSONFieldExtractor], [RegexExtractor] and
// [FirstMatch] cover servers behind proxies that reshape the response.
//
// # Architecture
//
//   - internal/poller: per-episode poll loops and the scheduler owning them
//   - internal/store: in-memory status store with pub/sub
//   - internal/server: REST API, forced-search endpoint and Server-Sent Events
//   - dashboard: embedded web UI assets
//   - config: YAML configuration for the searchwatch command
package searchwatch
