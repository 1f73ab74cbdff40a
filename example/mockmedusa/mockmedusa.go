// Package mockmedusa is a stand-in for the two Medusa endpoints searchwatch
// talks to, for demos and local testing.
//
// A forced search walks an episode through queued, searching and refresh
// before it settles on finished. Episodes never searched report finished.
package mockmedusa

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// Timing sets the phase lengths of a simulated search.
type Timing struct {
	Queued    time.Duration
	Searching time.Duration
	// Jitter is added at random, up to its value, to each phase.
	Jitter time.Duration
}

// DefaultTiming is slow enough to watch on the dashboard.
var DefaultTiming = Timing{
	Queued:    4 * time.Second,
	Searching: 10 * time.Second,
	Jitter:    5 * time.Second,
}

type search struct {
	queuedUntil    time.Time
	searchingUntil time.Time
	refreshed      bool
}

// Server simulates manual searches.
type Server struct {
	timing Timing
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	searches map[string]*search
}

// New creates a [Server]. A nil logger uses [slog.Default].
func New(timing Timing, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		timing:   timing,
		logger:   logger,
		now:      time.Now,
		searches: make(map[string]*search),
	}
}

// Handler returns the HTTP handler serving both endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/home/manualSearchCheckCache", s.handleStatus)
	mux.HandleFunc("/home/snatchSelection", s.handleSearch)
	return mux
}

func episodeKey(r *http.Request) string {
	q := r.URL.Query()
	return q.Get("indexername") + "-" + q.Get("seriesid") + "-" + q.Get("season") + "-" + q.Get("episode") + "-" + q.Get("manual_search_type")
}

func (s *Server) jitter() time.Duration {
	if s.timing.Jitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(s.timing.Jitter)))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("perform_search") != "1" {
		w.WriteHeader(http.StatusOK)
		return
	}

	key := episodeKey(r)
	now := s.now()

	s.mu.Lock()
	queuedUntil := now.Add(s.timing.Queued + s.jitter())
	s.searches[key] = &search{
		queuedUntil:    queuedUntil,
		searchingUntil: queuedUntil.Add(s.timing.Searching + s.jitter()),
	}
	s.mu.Unlock()

	s.logger.Info("manual search started", "episode", key)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	key := episodeKey(r)
	now := s.now()

	s.mu.Lock()
	result := "finished"
	if sr, ok := s.searches[key]; ok {
		switch {
		case now.Before(sr.queuedUntil):
			result = "queued"
		case now.Before(sr.searchingUntil):
			result = "searching"
		case !sr.refreshed:
			sr.refreshed = true
			result = "refresh"
		}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"result": result}); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}
