package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/jpalmerr/searchwatch/internal/poller"
	"github.com/jpalmerr/searchwatch/internal/store"
)

const (
	// sseWriteTimeout bounds a single SSE write so a stalled client cannot
	// pin its handler past shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	defaultTitle     = "searchwatch"
	titlePlaceholder = "{{.Title}}"
)

// Searcher starts a forced manual search for an episode key.
type Searcher interface {
	ForceSearch(key string) error
}

// Server serves the dashboard and the status API.
type Server struct {
	store      store.Store
	searcher   Searcher
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a [Server]. searcher and assets may be nil, which
// disables the search endpoint and the dashboard page respectively.
func NewServer(st store.Store, searcher Searcher, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	return &Server{
		store:    st,
		searcher: searcher,
		port:     port,
		assets:   assets,
		title:    title,
		logger:   logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/status/{key}", s.handleEpisodeStatus).Methods(http.MethodGet)
	api.HandleFunc("/sse", s.handleSSE).Methods(http.MethodGet)
	if s.searcher != nil {
		api.HandleFunc("/episodes/{key}/search", s.handleForceSearch).Methods(http.MethodPost)
	}

	if s.assets != nil {
		router.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	}
	return router
}

// Start binds the port and serves in the background until ctx is cancelled.
//
// Returns an error if the port cannot be bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx, which also stops SSE streams
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetAll())
}

func (s *Server) handleEpisodeStatus(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	record, ok := s.store.Get(key)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorBody("no status for episode "+key))
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleForceSearch(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	err := s.searcher.ForceSearch(key)
	switch {
	case err == nil:
		s.logger.Info("forced search requested", "episode", key)
		s.writeJSON(w, http.StatusAccepted, map[string]string{"key": key, "status": "started"})
	case errors.Is(err, poller.ErrUnknownEpisode):
		s.writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, poller.ErrSchedulerStopped):
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	default:
		s.logger.Error("forced search failed", "episode", key, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}

// handleSSE streams status records via Server-Sent Events.
//
// Every write carries a deadline so a slow or vanished client cannot block
// the handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, record := range s.store.GetAll() {
		data, err := json.Marshal(record)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case record, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(record)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
