package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// forceSearchRestartDelay is how long after a forced search the poll loop
// is restarted, giving the server time to register the new search.
const forceSearchRestartDelay = 2 * time.Second

// ErrUnknownEpisode is returned for a key no loop is registered under.
var ErrUnknownEpisode = errors.New("unknown episode")

// ErrSchedulerStopped is returned by operations on a stopped scheduler.
var ErrSchedulerStopped = errors.New("scheduler stopped")

// EpisodeInfo contains what the scheduler needs to poll one episode.
type EpisodeInfo struct {
	// Key is the unique name of the episode, usually [Identifiers.Key].
	Key string

	// Identify supplies the identifiers at the start of each session.
	Identify IdentifyFunc
}

// Scheduler owns one [Loop] per episode.
//
// Every loop is started when the scheduler starts and runs until its search
// finishes. A finished loop is restarted by [Scheduler.ForceSearch]. Updates
// from all loops are emitted on a single channel.
//
// All lifecycle methods (Start, Stop, ForceSearch) are safe for concurrent use.
type Scheduler struct {
	order        []string
	loops        map[string]*Loop
	client       *Client
	results      chan Update
	logger       *slog.Logger
	restartDelay time.Duration
	after        func(time.Duration) <-chan time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// NewScheduler creates a [Scheduler] polling episodes through client.
//
// Episode keys must be unique; a duplicate key is an error. The scheduler
// must be started with [Scheduler.Start] and stopped with [Scheduler.Stop].
func NewScheduler(client *Client, episodes []EpisodeInfo, cfg LoopConfig, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		order:        make([]string, 0, len(episodes)),
		loops:        make(map[string]*Loop, len(episodes)),
		client:       client,
		results:      make(chan Update, len(episodes)*2+1),
		logger:       logger,
		restartDelay: forceSearchRestartDelay,
		after:        time.After,
	}

	for _, ep := range episodes {
		if _, exists := s.loops[ep.Key]; exists {
			return nil, fmt.Errorf("duplicate episode key: %q", ep.Key)
		}
		s.loops[ep.Key] = NewLoop(ep.Key, ep.Identify, client, cfg, logger, s.emit)
		s.order = append(s.order, ep.Key)
	}
	return s, nil
}

// Results returns a receive-only channel that emits every [Update].
//
// The channel is closed when the scheduler stops. Consumers should read from
// it until it is closed.
func (s *Scheduler) Results() <-chan Update {
	return s.results
}

// Loop returns the loop registered under key.
func (s *Scheduler) Loop(key string) (*Loop, bool) {
	l, ok := s.loops[key]
	return l, ok
}

// Keys returns the episode keys in registration order.
func (s *Scheduler) Keys() []string {
	return append([]string(nil), s.order...)
}

// Start launches a poll session for every episode.
//
// Start is non-blocking and idempotent. If Stop was called first, Start is
// a no-op. If ctx is nil, context.Background() is used as the parent.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, key := range s.order {
		s.launchLocked(s.loops[key])
	}
}

// Stop cancels every session and waits for all goroutines to finish.
//
// The results channel is closed afterwards. Stop is idempotent and safe to
// call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	if s.client != nil {
		s.client.Close()
	}

	s.closeOnce.Do(func() { close(s.results) })
}

// ForceSearch requests a manual search for the episode under key and, after
// a fixed delay, restarts its poll loop unless one is already running.
//
// The request is sent in the background; ForceSearch returns once it has
// been dispatched.
func (s *Scheduler) ForceSearch(key string) error {
	loop, ok := s.loops[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEpisode, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return ErrSchedulerStopped
	}
	ctx := s.ctx

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := loop.ForceSearch(ctx); err != nil {
			s.logger.Warn("forced search not sent", "episode", key, "error", err.Error())
		}
	}()
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-s.after(s.restartDelay):
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopped || loop.Running() {
			return
		}
		s.launchLocked(loop)
	}()
	return nil
}

// launchLocked runs a session for loop in the background. Caller holds s.mu.
func (s *Scheduler) launchLocked(loop *Loop) {
	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := loop.Run(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrLoopRunning):
			s.logger.Debug("poll loop already running", "episode", loop.Key())
		default:
			s.logger.Error("poll loop ended", "episode", loop.Key(), "error", err.Error())
		}
	}()
}

// emit forwards an update to the results channel unless the scheduler is
// shutting down.
func (s *Scheduler) emit(ctx context.Context, u Update) {
	if u.Error != nil {
		s.logger.Warn("search status check failed", append(describe(u), "error", u.Error.Error())...)
	} else {
		s.logger.Debug("search status checked", describe(u)...)
	}

	select {
	case s.results <- u:
	case <-ctx.Done():
	}
}
