package searchwatch

import (
	"encoding/json"
	"time"

	"github.com/jpalmerr/searchwatch/internal/poller"
)

// Result is the state a Medusa server reports for a manual search.
//
// Result is a closed set: every wire tag is mapped onto one of the six
// constants by [ParseResult] when the response is decoded, so callers never
// see free-form strings.
type Result string

const (
	// ResultSearching means the search is running. Polling continues every 5s.
	ResultSearching Result = "searching"

	// ResultQueued means the search waits behind another one. Polling
	// slows to every 7s.
	ResultQueued Result = "queued"

	// ResultFinished means the search is done. Polling stops.
	ResultFinished Result = "finished"

	// ResultRefresh means new results are available and should be reloaded.
	ResultRefresh Result = "refresh"

	// ResultError means the server reported a failed search. Polling continues.
	ResultError Result = "error"

	// ResultEmpty is an empty or unrecognised tag. It is treated as finished.
	ResultEmpty Result = ""
)

// String returns the wire tag.
func (r Result) String() string {
	return string(r)
}

// ParseResult maps a wire tag to a [Result].
//
// Matching ignores case and surrounding whitespace. The boolean is false for
// unrecognised tags, which are returned as [ResultEmpty].
func ParseResult(tag string) (Result, bool) {
	r, ok := poller.ParseResult(tag)
	return Result(r), ok
}

// Update describes one status check, or the request of a forced search.
//
// Update values are handed to callbacks registered with [WithUpdateCallback].
// Besides the result it carries what a search page shows: a status line,
// whether the manual-search button is usable, and whether results need a
// reload.
type Update struct {
	// Episode is the episode the update is about.
	Episode Episode

	// Result is the reported search state. Zero value when the check failed.
	Result Result

	// Message is the human-readable status line, e.g. "Search finished".
	Message string

	// TriggerEnabled reports whether a new manual search may be started.
	TriggerEnabled bool

	// Reload is set when the server asked for search results to be reloaded.
	Reload bool

	// Forced is set on the update announcing a forced manual search.
	Forced bool

	// Polling reports whether another check is scheduled.
	Polling bool

	// NextCheck is the delay before the next check when Polling is set.
	NextCheck time.Duration

	// Subtitles holds subtitle data returned with a finished subtitle search.
	Subtitles json.RawMessage

	// CheckedAt is when the check completed.
	CheckedAt time.Time

	// Latency is the duration of the status request.
	Latency time.Duration

	// StatusCode is the HTTP status of the reply, zero if none arrived.
	StatusCode int

	// Error is set when the check failed in transport or decoding.
	// Server-reported failures use [ResultError] instead.
	Error error
}
