package searchwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/jpalmerr/searchwatch/dashboard"
	"github.com/jpalmerr/searchwatch/internal/poller"
	"github.com/jpalmerr/searchwatch/internal/server"
	"github.com/jpalmerr/searchwatch/internal/store"
)

const (
	defaultPort  = 8080
	defaultTitle = "searchwatch"
)

var (
	// ErrUnknownEpisode is returned for a key that names no watched episode.
	ErrUnknownEpisode = poller.ErrUnknownEpisode

	// ErrNotRunning is returned by [Watcher.ForceSearch] once the watcher has
	// stopped.
	ErrNotRunning = poller.ErrSchedulerStopped

	// ErrAlreadyStarted is returned by a second call to [Watcher.Start].
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Watcher follows manual searches on a Medusa server.
//
// Watcher runs one poll loop per episode, keeps the latest status of each in
// memory, and serves it on a live dashboard. It is created using [New] with
// functional options and started with [Watcher.Start].
//
// The typical lifecycle is:
//
//	ep, _ := searchwatch.NewEpisode("tvdb", 101, 2, 5)
//	w, err := searchwatch.New(
//	    searchwatch.WithServer("http://localhost:8081"),
//	    searchwatch.WithEpisode(ep),
//	)
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	w.Start(ctx) // blocks until context cancelled
type Watcher struct {
	title           string
	serverURL       string
	headers         map[string]string
	episodes        []Episode
	byKey           map[string]Episode
	loopCfg         poller.LoopConfig
	port            int
	dashboard       bool
	logger          *slog.Logger
	updateCallbacks []func(Update)
	reloadCallbacks []func(Episode)

	mu        sync.Mutex
	started   bool
	scheduler *poller.Scheduler
	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a new [Watcher] with the given options.
//
// [WithServer] and at least one episode ([WithEpisode] or [WithEpisodes])
// are required. Other options have defaults:
//   - Poll interval: 5 seconds, 7 seconds while queued
//   - Request timeout: 15 seconds
//   - Port: 8080
//   - Consecutive failed checks: unlimited
//
// Returns an error if the server URL is invalid, no episodes are configured,
// two episodes share a key, or any option is invalid.
func New(opts ...Option) (*Watcher, error) {
	cfg := &wConfig{
		headers:        make(map[string]string),
		pollInterval:   poller.DefaultPollInterval,
		queuedInterval: poller.DefaultQueuedInterval,
		timeout:        poller.DefaultTimeout,
		port:           defaultPort,
		dashboard:      true,
		title:          defaultTitle,
		statusPath:     poller.DefaultStatusPath,
		searchPath:     poller.DefaultSearchPath,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.serverURL == "" {
		return nil, errors.New("server URL is required")
	}
	// the client is rebuilt on Start; this only validates the URL
	if _, err := poller.NewClient(cfg.serverURL, nil); err != nil {
		return nil, err
	}

	if len(cfg.episodes) == 0 {
		return nil, errors.New("at least one episode is required")
	}

	byKey := make(map[string]Episode, len(cfg.episodes))
	for _, ep := range cfg.episodes {
		if err := ep.identifiers().Validate(); err != nil {
			return nil, err
		}
		if _, dup := byKey[ep.Key()]; dup {
			return nil, fmt.Errorf("duplicate episode: %q", ep.Key())
		}
		byKey[ep.Key()] = ep
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	loopCfg := poller.LoopConfig{
		StatusPath:     cfg.statusPath,
		SearchPath:     cfg.searchPath,
		Timeout:        cfg.timeout,
		PollInterval:   cfg.pollInterval,
		QueuedInterval: cfg.queuedInterval,
		MaxErrorTicks:  cfg.maxErrorTicks,
	}
	if cfg.extractor != nil {
		extract := cfg.extractor
		loopCfg.Extractor = func(body []byte) (string, error) {
			r, err := extract(body)
			return string(r), err
		}
	}

	return &Watcher{
		title:           cfg.title,
		serverURL:       cfg.serverURL,
		headers:         cfg.headers,
		episodes:        cfg.episodes,
		byKey:           byKey,
		loopCfg:         loopCfg,
		port:            cfg.port,
		dashboard:       cfg.dashboard,
		logger:          logger,
		updateCallbacks: cfg.updateCallbacks,
		reloadCallbacks: cfg.reloadCallbacks,
		ready:           make(chan struct{}),
	}, nil
}

// Start polls every episode and serves the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - Each episode is checked immediately, then at the interval its last
//     result calls for, until its search finishes
//   - Every update is stored, then handed to the registered callbacks
//   - The dashboard is served on the configured port, unless disabled
//
// Returns nil on graceful shutdown. Returns an error if the dashboard server
// fails to start, or [ErrAlreadyStarted] if called twice.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	w.mu.Unlock()

	// a Start that returns without a scheduler still releases ForceSearch
	defer w.markReady()

	w.logger.Info("searchwatch starting",
		"server", w.serverURL,
		"episode_count", len(w.episodes),
		"poll_interval", w.loopCfg.PollInterval.String(),
	)

	if ctx.Err() != nil {
		return nil
	}

	client, err := poller.NewClient(w.serverURL, w.headers)
	if err != nil {
		return err
	}
	scheduler, err := poller.NewScheduler(client, w.toPollerEpisodes(), w.loopCfg, w.logger)
	if err != nil {
		return err
	}

	statusStore := store.NewMemoryStore()

	scheduler.Start(ctx)
	w.mu.Lock()
	w.scheduler = scheduler
	w.mu.Unlock()
	w.markReady()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range scheduler.Results() {
			// store first, callbacks fire after data is visible on the dashboard
			statusStore.Update(updateToRecord(u, w.byKey[u.Key]))
			w.dispatch(w.toPublic(u))
		}
	}()

	cleanup := func() {
		scheduler.Stop() // closes results channel
		wg.Wait()
	}

	if w.dashboard {
		httpServer := server.NewServer(statusStore, scheduler, w.port, dashboard.Assets, w.title, w.logger)
		if err := httpServer.Start(ctx); err != nil {
			cleanup()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		w.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", w.port))
	}

	<-ctx.Done()
	cleanup()
	w.logger.Info("searchwatch stopped")
	return nil
}

// ForceSearch asks the server to start a manual search for the episode under
// key, then resumes polling it.
//
// If the watcher has not started yet, ForceSearch waits for it or for ctx.
// Returns an error wrapping [ErrUnknownEpisode] for an unknown key and
// [ErrNotRunning] once the watcher has stopped.
func (w *Watcher) ForceSearch(ctx context.Context, key string) error {
	if _, ok := w.byKey[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEpisode, key)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.ready:
	}

	w.mu.Lock()
	scheduler := w.scheduler
	w.mu.Unlock()
	if scheduler == nil {
		return ErrNotRunning
	}
	return scheduler.ForceSearch(key)
}

func (w *Watcher) markReady() {
	w.readyOnce.Do(func() { close(w.ready) })
}

// Check performs a single status check for the episode under key, outside
// of any running poll loop. It does not require [Watcher.Start].
func (w *Watcher) Check(ctx context.Context, key string) (Update, error) {
	ep, ok := w.byKey[key]
	if !ok {
		return Update{}, fmt.Errorf("%w: %q", ErrUnknownEpisode, key)
	}

	client, err := poller.NewClient(w.serverURL, w.headers)
	if err != nil {
		return Update{}, err
	}
	defer client.Close()

	ids := ep.identifiers()
	loop := poller.NewLoop(key, func() (poller.Identifiers, error) { return ids, nil }, client, w.loopCfg, w.logger, nil)
	u, err := loop.Tick(ctx)
	if err != nil {
		return Update{}, err
	}
	return w.toPublic(u), nil
}

// Episodes returns a copy of the watched episodes.
func (w *Watcher) Episodes() []Episode {
	cp := make([]Episode, len(w.episodes))
	copy(cp, w.episodes)
	return cp
}

// Port returns the configured dashboard port.
func (w *Watcher) Port() int {
	return w.port
}

func (w *Watcher) toPollerEpisodes() []poller.EpisodeInfo {
	infos := make([]poller.EpisodeInfo, len(w.episodes))
	for i, ep := range w.episodes {
		ids := ep.identifiers()
		infos[i] = poller.EpisodeInfo{
			Key:      ep.Key(),
			Identify: func() (poller.Identifiers, error) { return ids, nil },
		}
	}
	return infos
}

// toPublic converts a poller update to the public type.
// Mutable fields are copied so callbacks cannot race the store.
func (w *Watcher) toPublic(u poller.Update) Update {
	return Update{
		Episode:        w.byKey[u.Key],
		Result:         Result(u.Result),
		Message:        u.Message,
		TriggerEnabled: u.TriggerEnabled,
		Reload:         u.Reload,
		Forced:         u.Forced,
		Polling:        u.Repeat,
		NextCheck:      u.NextInterval,
		Subtitles:      copyBytes(u.Subtitles),
		CheckedAt:      u.CheckedAt,
		Latency:        u.Latency,
		StatusCode:     u.StatusCode,
		Error:          u.Error,
	}
}

func (w *Watcher) dispatch(u Update) {
	for _, cb := range w.updateCallbacks {
		invokeCallbackSafe(w.logger, "update", u.Episode.Key(), func() { cb(u) })
	}
	if !u.Reload {
		return
	}
	for _, cb := range w.reloadCallbacks {
		invokeCallbackSafe(w.logger, "reload", u.Episode.Key(), func() { cb(u.Episode) })
	}
}

// updateToRecord converts a poller update to a store record.
func updateToRecord(u poller.Update, ep Episode) store.StatusRecord {
	var errStr *string
	if u.Error != nil {
		s := u.Error.Error()
		errStr = &s
	}

	var next int64
	if u.Repeat {
		next = u.NextInterval.Milliseconds()
	}

	return store.StatusRecord{
		Key:            u.Key,
		Indexer:        u.Identifiers.Indexer,
		SeriesID:       u.Identifiers.SeriesID,
		Season:         u.Identifiers.Season,
		Episode:        u.Identifiers.Episode,
		SearchType:     string(ep.SearchType()),
		Labels:         ep.Labels(),
		Result:         string(u.Result),
		Message:        u.Message,
		TriggerEnabled: u.TriggerEnabled,
		Polling:        u.Repeat,
		NextCheckMs:    next,
		Reload:         u.Reload,
		Subtitles:      copyBytes(u.Subtitles),
		ResponseTimeMs: u.Latency.Milliseconds(),
		CheckedAt:      u.CheckedAt,
		Error:          errStr,
	}
}

// copyBytes returns a copy of the byte slice, or nil if input is nil.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// invokeCallbackSafe runs a user callback with panic recovery.
// Panics are logged under a correlation ID and do not propagate.
func invokeCallbackSafe(logger *slog.Logger, kind, key string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("callback panicked",
				"correlation_id", uuid.NewString(),
				"callback", kind,
				"episode", key,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	call()
}
