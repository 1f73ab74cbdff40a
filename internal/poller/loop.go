package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPollInterval   = 5 * time.Second
	DefaultQueuedInterval = 7 * time.Second
	DefaultTimeout        = 15 * time.Second

	DefaultStatusPath = "home/manualSearchCheckCache"
	DefaultSearchPath = "home/snatchSelection"

	// identifyRetryDelay is how long Run waits before re-reading
	// identifiers that were not ready on the first attempt.
	identifyRetryDelay = 200 * time.Millisecond
)

// Status messages shown for each tick outcome.
const (
	MessageRefreshed   = "Refreshed results..."
	MessageSearching   = "The episode is being searched, please wait..."
	MessageQueued      = "The episode has been queued, because another search is taking place. Please wait..."
	MessageFinished    = "Search finished"
	MessageServerError = "The server reported a search error, still checking..."
	MessageForced      = "Started a forced manual search..."
)

// ErrLoopRunning is returned by [Loop.Run] when a session is already active.
var ErrLoopRunning = errors.New("poll loop already running")

// IdentifyFunc supplies the identifiers for a loop. It is consulted at the
// start of every session, so it may return an error until they are ready.
type IdentifyFunc func() (Identifiers, error)

// Update is the outcome of one tick, or of a forced search request.
type Update struct {
	// Key identifies the loop that produced the update.
	Key string

	Identifiers Identifiers

	// Result is the tag reported by the server. Zero value on transport errors.
	// A forced update carries the last reported result.
	Result Result

	// Subtitles carries downloaded subtitle data on a finished subtitle search.
	Subtitles json.RawMessage

	// Message is the human-readable status line.
	Message string

	// TriggerEnabled reports whether a new manual search may be started.
	TriggerEnabled bool

	// Reload is set when the server asks for the results to be reloaded.
	Reload bool

	// Forced marks the update emitted when a forced search is requested.
	Forced bool

	// Repeat reports whether another tick is scheduled.
	Repeat bool

	// NextInterval is the delay before the next tick when Repeat is set.
	NextInterval time.Duration

	CheckedAt  time.Time
	Latency    time.Duration
	StatusCode int

	// Error holds a transport failure or a recovered extractor panic.
	Error error
}

// LoopConfig holds the tunables shared by every loop of a scheduler.
type LoopConfig struct {
	StatusPath     string
	SearchPath     string
	Timeout        time.Duration
	PollInterval   time.Duration
	QueuedInterval time.Duration

	// MaxErrorTicks stops a loop after this many consecutive failed ticks.
	// Zero polls forever.
	MaxErrorTicks int

	// Extractor reads the result tag. Nil reads the top-level "result" field.
	Extractor Extractor
}

func (c LoopConfig) withDefaults() LoopConfig {
	if c.StatusPath == "" {
		c.StatusPath = DefaultStatusPath
	}
	if c.SearchPath == "" {
		c.SearchPath = DefaultSearchPath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.QueuedInterval <= 0 {
		c.QueuedInterval = DefaultQueuedInterval
	}
	return c
}

// Loop is the poll loop controller for a single episode.
//
// A Loop holds the only mutable polling state: the current interval, the
// repeat flag, the trigger state and the consecutive error count. Ticks never
// overlap because each is scheduled only after the previous one returns.
// A Loop may be run again after a session ends.
type Loop struct {
	key      string
	identify IdentifyFunc
	client   *Client
	cfg      LoopConfig
	logger   *slog.Logger
	emit     func(context.Context, Update)
	after    func(time.Duration) <-chan time.Time

	mu             sync.Mutex
	interval       time.Duration
	repeat         bool
	triggerEnabled bool
	errorTicks     int
	last           Result
	running        bool
	cancel         context.CancelFunc
}

// NewLoop creates a [Loop].
//
// emit receives every update; it may be nil when the caller only uses
// [Loop.Tick].
func NewLoop(key string, identify IdentifyFunc, client *Client, cfg LoopConfig, logger *slog.Logger, emit func(context.Context, Update)) *Loop {
	cfg = cfg.withDefaults()
	if emit == nil {
		emit = func(context.Context, Update) {}
	}
	return &Loop{
		key:            key,
		identify:       identify,
		client:         client,
		cfg:            cfg,
		logger:         logger,
		emit:           emit,
		after:          time.After,
		interval:       cfg.PollInterval,
		triggerEnabled: true,
	}
}

// Key returns the loop's identifier.
func (l *Loop) Key() string {
	return l.key
}

// Running reports whether a session is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Interval returns the delay that will precede the next tick.
func (l *Loop) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}

// TriggerEnabled reports whether a manual search may be started.
func (l *Loop) TriggerEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.triggerEnabled
}

// Run polls until the search finishes, [Loop.Stop] is called, or ctx is
// cancelled. Tick failures never end the session on their own.
//
// If the identifiers are not ready, Run waits 200ms and asks once more. When
// they are still invalid it returns an error wrapping [ErrInvalidIdentifiers]
// without contacting the server.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrLoopRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	l.running = true
	l.repeat = true
	l.errorTicks = 0
	l.cancel = cancel
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.cancel = nil
		l.mu.Unlock()
		cancel()
	}()

	ids, err := l.resolve(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	for {
		u := l.tick(ctx, ids)
		if ctx.Err() != nil {
			return nil
		}
		l.emit(ctx, u)
		if !u.Repeat {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.after(u.NextInterval):
		}
	}
}

// Stop ends the active session, if any. The in-flight request is aborted.
// Safe to call multiple times and before Run.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.repeat = false
	if l.cancel != nil {
		l.cancel()
	}
}

// Tick performs a single status check outside of a session.
func (l *Loop) Tick(ctx context.Context) (Update, error) {
	ids, err := l.identifyValid()
	if err != nil {
		return Update{}, err
	}

	l.mu.Lock()
	if !l.running {
		l.repeat = true
	}
	l.mu.Unlock()

	return l.tick(ctx, ids), nil
}

// ForceSearch asks the server to run a manual search now.
//
// The trigger is disabled immediately and an update announcing the search is
// emitted. The search request itself is fire-and-forget: its response is
// ignored and failures are only logged.
func (l *Loop) ForceSearch(ctx context.Context) error {
	ids, err := l.identifyValid()
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.triggerEnabled = false
	u := Update{
		Key:            l.key,
		Identifiers:    ids,
		Result:         l.last,
		Message:        MessageForced,
		Forced:         true,
		Repeat:         l.running && l.repeat,
		NextInterval:   l.interval,
		CheckedAt:      time.Now(),
		TriggerEnabled: false,
	}
	l.mu.Unlock()
	l.emit(ctx, u)

	query := ids.Query()
	query.Set("perform_search", "1")
	if !ids.SeasonSearch {
		query.Set("manual_search_type", "episode")
	}
	resp := l.client.Get(ctx, l.cfg.SearchPath, query, l.cfg.Timeout)
	if resp.Error != nil {
		l.logger.Warn("forced search request failed",
			"episode", l.key,
			"error", resp.Error.Error(),
		)
		return nil
	}
	l.logger.Debug("forced search requested",
		"episode", l.key,
		"latency_ms", resp.Latency.Milliseconds(),
	)
	return nil
}

// resolve reads the identifiers, allowing one deferred retry.
func (l *Loop) resolve(ctx context.Context) (Identifiers, error) {
	ids, err := l.identifyValid()
	if err == nil {
		return ids, nil
	}
	l.logger.Debug("episode identifiers not ready, retrying",
		"episode", l.key,
		"error", err.Error(),
		"delay", identifyRetryDelay.String(),
	)

	select {
	case <-ctx.Done():
		return Identifiers{}, ctx.Err()
	case <-l.after(identifyRetryDelay):
	}

	ids, err = l.identifyValid()
	if err != nil {
		l.logger.Error("episode identifiers invalid, not polling",
			"episode", l.key,
			"error", err.Error(),
		)
		return Identifiers{}, err
	}
	return ids, nil
}

func (l *Loop) identifyValid() (Identifiers, error) {
	ids, err := l.identify()
	if err != nil {
		if !errors.Is(err, ErrInvalidIdentifiers) {
			err = fmt.Errorf("%w: %v", ErrInvalidIdentifiers, err)
		}
		return Identifiers{}, err
	}
	if err := ids.Validate(); err != nil {
		return Identifiers{}, err
	}
	return ids, nil
}

// tick issues one status request and applies the reported result.
func (l *Loop) tick(ctx context.Context, ids Identifiers) Update {
	resp := l.client.Get(ctx, l.cfg.StatusPath, ids.Query(), l.cfg.Timeout)

	u := Update{
		Key:         l.key,
		Identifiers: ids,
		CheckedAt:   time.Now(),
		Latency:     resp.Latency,
		StatusCode:  resp.StatusCode,
	}

	var status SearchStatus
	err := resp.Error
	if err == nil {
		status, err = l.safeDecode(resp.Body)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		u.Error = err
		u.Message = "Could not check search status: " + err.Error()
		l.triggerEnabled = true
		l.errorTicks++
	} else {
		u.Result = status.Result
		u.Subtitles = status.Subtitles
		l.last = status.Result
		l.apply(&u, status)
	}

	if l.cfg.MaxErrorTicks > 0 && l.errorTicks >= l.cfg.MaxErrorTicks && l.repeat {
		l.logger.Warn("giving up after consecutive failed checks",
			"episode", l.key,
			"failed_checks", l.errorTicks,
		)
		l.repeat = false
	}

	u.TriggerEnabled = l.triggerEnabled
	u.Repeat = l.repeat
	u.NextInterval = l.interval
	return u
}

// apply updates the loop state for a decoded status. Caller holds l.mu.
func (l *Loop) apply(u *Update, status SearchStatus) {
	switch status.Result {
	case ResultRefresh:
		u.Reload = true
		u.Message = MessageRefreshed
		l.errorTicks = 0
	case ResultSearching:
		l.interval = l.cfg.PollInterval
		l.triggerEnabled = false
		u.Message = MessageSearching
		l.errorTicks = 0
	case ResultQueued:
		l.interval = l.cfg.QueuedInterval
		l.triggerEnabled = false
		u.Message = MessageQueued
		l.errorTicks = 0
	case ResultError:
		l.triggerEnabled = true
		l.repeat = true
		u.Message = MessageServerError
		l.errorTicks++
	default:
		if status.Result == ResultEmpty && status.Tag != "" {
			l.logger.Warn("unknown search result, treating as finished",
				"episode", l.key,
				"result", status.Tag,
			)
		}
		l.triggerEnabled = true
		l.repeat = false
		u.Message = MessageFinished
		l.errorTicks = 0
	}
}

// safeDecode decodes the body with panic recovery around the extractor.
// A panic is logged with its stack under a correlation ID and surfaced as
// a tick error carrying the same ID.
func (l *Loop) safeDecode(body []byte) (status SearchStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			l.logger.Error("extractor panic",
				"correlation_id", correlationID,
				"episode", l.key,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			status = SearchStatus{}
			err = fmt.Errorf("extractor panic (correlation_id: %s)", correlationID)
		}
	}()
	return decodeStatus(body, l.cfg.Extractor)
}

// describe renders an update for log lines.
func describe(u Update) []any {
	attrs := []any{
		"episode", u.Key,
		"result", string(u.Result),
		"repeat", u.Repeat,
		"next_interval", u.NextInterval.String(),
		"latency_ms", u.Latency.Milliseconds(),
	}
	if u.StatusCode != 0 {
		attrs = append(attrs, "status_code", strconv.Itoa(u.StatusCode))
	}
	return attrs
}
