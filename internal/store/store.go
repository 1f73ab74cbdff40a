package store

import (
	"encoding/json"
	"time"
)

// StatusRecord is the latest known search status of one episode.
//
// It is the JSON shape served by the REST API and the SSE stream.
type StatusRecord struct {
	// Key identifies the episode, e.g. "tvdb-101-s02e05".
	Key string `json:"key"`

	Indexer    string `json:"indexer"`
	SeriesID   int    `json:"series_id"`
	Season     int    `json:"season"`
	Episode    int    `json:"episode"`
	SearchType string `json:"search_type"`

	Labels map[string]string `json:"labels,omitempty"`

	// Result is the last tag reported by the server.
	Result string `json:"result"`

	// Message is the status line shown to the user.
	Message string `json:"message"`

	// TriggerEnabled reports whether a manual search can be started.
	TriggerEnabled bool `json:"trigger_enabled"`

	// Polling reports whether another status check is scheduled.
	Polling bool `json:"polling"`

	// NextCheckMs is the delay before the next check in milliseconds.
	NextCheckMs int64 `json:"next_check_ms"`

	// Reload asks clients to reload their search results.
	Reload bool `json:"reload"`

	Subtitles json.RawMessage `json:"subtitles,omitempty"`

	ResponseTimeMs int64     `json:"response_time_ms"`
	CheckedAt      time.Time `json:"checked_at"`

	// Error contains the failure message of the last check, if any.
	Error *string `json:"error"`
}

// Store defines storage and subscription for status records.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Update stores a record under its Key and notifies all subscribers.
	Update(record StatusRecord)

	// Get returns the record stored under key.
	Get(key string) (StatusRecord, bool)

	// GetAll returns all records ordered by Key.
	GetAll() []StatusRecord

	// Subscribe returns a buffered channel that receives every update.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan StatusRecord

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan StatusRecord)
}
