package searchwatch

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/searchwatch/internal/poller"
)

func mustEpisode(t *testing.T, season, episode int, opts ...EpisodeOption) Episode {
	t.Helper()
	ep, err := NewEpisode("tvdb", 101, season, episode, opts...)
	if err != nil {
		t.Fatalf("NewEpisode() error = %v", err)
	}
	return ep
}

func TestNew_Defaults(t *testing.T) {
	w, err := New(WithServer("http://localhost:8081"), WithEpisode(mustEpisode(t, 2, 5)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if w.Port() != defaultPort {
		t.Errorf("Port() = %d, want %d", w.Port(), defaultPort)
	}
	if w.title != defaultTitle {
		t.Errorf("title = %q, want %q", w.title, defaultTitle)
	}
	if !w.dashboard {
		t.Error("dashboard should be enabled by default")
	}
	if w.loopCfg.PollInterval != poller.DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", w.loopCfg.PollInterval, poller.DefaultPollInterval)
	}
	if w.loopCfg.QueuedInterval != poller.DefaultQueuedInterval {
		t.Errorf("QueuedInterval = %v, want %v", w.loopCfg.QueuedInterval, poller.DefaultQueuedInterval)
	}
	if w.loopCfg.Timeout != poller.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", w.loopCfg.Timeout, poller.DefaultTimeout)
	}
	if w.loopCfg.MaxErrorTicks != 0 {
		t.Errorf("MaxErrorTicks = %d, want 0", w.loopCfg.MaxErrorTicks)
	}
	if w.loopCfg.StatusPath != poller.DefaultStatusPath || w.loopCfg.SearchPath != poller.DefaultSearchPath {
		t.Errorf("paths = %q, %q", w.loopCfg.StatusPath, w.loopCfg.SearchPath)
	}
	if w.loopCfg.Extractor != nil {
		t.Error("Extractor should be nil without WithExtractor")
	}
}

func TestNew_AllOptions(t *testing.T) {
	episodes, err := NewEpisodeGrid("tvdb", 101, []int{1}, []int{1, 2})
	if err != nil {
		t.Fatalf("NewEpisodeGrid() error = %v", err)
	}

	w, err := New(
		WithServer("https://nas.local/medusa"),
		WithHeaders("X-Api-Key", "secret"),
		WithEpisodes(episodes...),
		WithEpisode(mustEpisode(t, 2, 1)),
		WithPollInterval(time.Second),
		WithQueuedInterval(2*time.Second),
		WithTimeout(3*time.Second),
		WithMaxErrorTicks(4),
		WithPort(9090),
		WithTitle("Downloads"),
		WithLogger(slog.Default()),
		WithExtractor(JSONFieldExtractor("data.result")),
		WithStatusPath("api/status"),
		WithSearchPath("api/search"),
		WithoutDashboard(),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := len(w.Episodes()); got != 3 {
		t.Errorf("len(Episodes()) = %d, want 3", got)
	}
	if w.headers["X-Api-Key"] != "secret" {
		t.Errorf("headers = %v", w.headers)
	}
	if w.Port() != 9090 || w.title != "Downloads" || w.dashboard {
		t.Errorf("port=%d title=%q dashboard=%v", w.Port(), w.title, w.dashboard)
	}
	cfg := w.loopCfg
	if cfg.PollInterval != time.Second || cfg.QueuedInterval != 2*time.Second || cfg.Timeout != 3*time.Second {
		t.Errorf("intervals = %v, %v, %v", cfg.PollInterval, cfg.QueuedInterval, cfg.Timeout)
	}
	if cfg.MaxErrorTicks != 4 {
		t.Errorf("MaxErrorTicks = %d, want 4", cfg.MaxErrorTicks)
	}
	if cfg.StatusPath != "api/status" || cfg.SearchPath != "api/search" {
		t.Errorf("paths = %q, %q", cfg.StatusPath, cfg.SearchPath)
	}

	tag, err := cfg.Extractor([]byte(`{"data":{"result":"queued"}}`))
	if err != nil || tag != "queued" {
		t.Errorf("Extractor() = %q, %v, want queued", tag, err)
	}
}

func TestNew_Errors(t *testing.T) {
	ep := mustEpisode(t, 2, 5)

	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{name: "no server", opts: []Option{WithEpisode(ep)}, wantErr: "server URL is required"},
		{name: "empty server", opts: []Option{WithServer(""), WithEpisode(ep)}, wantErr: "cannot be empty"},
		{name: "bad scheme", opts: []Option{WithServer("ftp://medusa"), WithEpisode(ep)}, wantErr: "http or https"},
		{name: "no episodes", opts: []Option{WithServer("http://medusa")}, wantErr: "at least one episode"},
		{name: "duplicate episode", opts: []Option{WithServer("http://medusa"), WithEpisode(ep), WithEpisode(ep)}, wantErr: "duplicate episode"},
		{name: "zero value episode", opts: []Option{WithServer("http://medusa"), WithEpisode(Episode{})}, wantErr: "invalid episode identifiers"},
		{name: "odd headers", opts: []Option{WithHeaders("X-Api-Key")}, wantErr: "even number"},
		{name: "zero poll interval", opts: []Option{WithPollInterval(0)}, wantErr: "poll interval"},
		{name: "zero queued interval", opts: []Option{WithQueuedInterval(0)}, wantErr: "queued interval"},
		{name: "zero timeout", opts: []Option{WithTimeout(0)}, wantErr: "timeout"},
		{name: "negative error ticks", opts: []Option{WithMaxErrorTicks(-1)}, wantErr: "max error ticks"},
		{name: "port too low", opts: []Option{WithPort(0)}, wantErr: "port"},
		{name: "port too high", opts: []Option{WithPort(70000)}, wantErr: "port"},
		{name: "nil logger", opts: []Option{WithLogger(nil)}, wantErr: "logger"},
		{name: "nil extractor", opts: []Option{WithExtractor(nil)}, wantErr: "extractor"},
		{name: "empty status path", opts: []Option{WithStatusPath("")}, wantErr: "status path"},
		{name: "empty search path", opts: []Option{WithSearchPath("")}, wantErr: "search path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if err == nil {
				t.Fatal("New() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_NilCallbacksIgnored(t *testing.T) {
	w, err := New(
		WithServer("http://medusa"),
		WithEpisode(mustEpisode(t, 1, 1)),
		WithUpdateCallback(nil),
		WithReloadCallback(nil),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(w.updateCallbacks) != 0 || len(w.reloadCallbacks) != 0 {
		t.Errorf("nil callbacks registered: %d, %d", len(w.updateCallbacks), len(w.reloadCallbacks))
	}
}

func TestEpisodes_ReturnsCopy(t *testing.T) {
	w, err := New(WithServer("http://medusa"), WithEpisode(mustEpisode(t, 1, 1)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	eps := w.Episodes()
	eps[0] = mustEpisode(t, 9, 9)

	if got := w.Episodes()[0].Key(); got != "tvdb-101-s01e01" {
		t.Errorf("mutation affected watcher: Episodes()[0].Key() = %q", got)
	}
}
