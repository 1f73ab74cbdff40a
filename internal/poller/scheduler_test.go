package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestScheduler(t *testing.T, handler http.Handler, episodes ...Identifiers) *Scheduler {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	infos := make([]EpisodeInfo, len(episodes))
	for i, id := range episodes {
		infos[i] = EpisodeInfo{Key: id.Key(), Identify: staticIdentify(id)}
	}

	s, err := NewScheduler(client, infos, LoopConfig{}, testLogger())
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	s.restartDelay = 10 * time.Millisecond
	return s
}

func finishedHandler(searches *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/home/snatchSelection" {
			if searches != nil {
				searches.Add(1)
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write([]byte(`{"result":"finished"}`))
	})
}

func nextUpdate(t *testing.T, s *Scheduler) Update {
	t.Helper()
	select {
	case u := <-s.Results():
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for update")
	}
	return Update{}
}

func TestNewScheduler_DuplicateKey(t *testing.T) {
	client, _ := NewClient("http://localhost:8081", nil)
	infos := []EpisodeInfo{
		{Key: "a", Identify: staticIdentify(testEpisode)},
		{Key: "a", Identify: staticIdentify(testEpisode)},
	}

	if _, err := NewScheduler(client, infos, LoopConfig{}, testLogger()); err == nil {
		t.Error("NewScheduler() expected error for duplicate key, got nil")
	}
}

func TestScheduler_PollsEveryEpisode(t *testing.T) {
	other := Identifiers{Indexer: "tvdb", SeriesID: 202, Season: 1, Episode: 1}
	s := newTestScheduler(t, finishedHandler(nil), testEpisode, other)
	s.Start(context.Background())

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		u := nextUpdate(t, s)
		seen[u.Key] = true
	}
	s.Stop()

	for _, key := range []string{testEpisode.Key(), other.Key()} {
		if !seen[key] {
			t.Errorf("no update for %s", key)
		}
	}
}

func TestScheduler_ForceSearchRestartsFinishedLoop(t *testing.T) {
	var searches atomic.Int32
	s := newTestScheduler(t, finishedHandler(&searches), testEpisode)
	s.Start(context.Background())
	defer s.Stop()

	first := nextUpdate(t, s)
	if first.Repeat {
		t.Fatalf("first update Repeat = true, want false")
	}

	// wait for the first session to end before forcing
	loop, _ := s.Loop(testEpisode.Key())
	deadline := time.Now().Add(2 * time.Second)
	for loop.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.ForceSearch(testEpisode.Key()); err != nil {
		t.Fatalf("ForceSearch() error = %v", err)
	}

	var forced, restarted Update
	for i := 0; i < 2; i++ {
		u := nextUpdate(t, s)
		if u.Forced {
			forced = u
		} else {
			restarted = u
		}
	}

	if !forced.Forced || forced.TriggerEnabled {
		t.Errorf("forced update = %+v, want Forced with trigger disabled", forced)
	}
	if restarted.Result != ResultFinished {
		t.Errorf("restarted update = %+v, want a finished status check", restarted)
	}

	// the search request runs in the background
	deadline = time.Now().Add(2 * time.Second)
	for searches.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if searches.Load() != 1 {
		t.Errorf("search requests = %d, want 1", searches.Load())
	}
}

func TestScheduler_ForceSearchUnknownEpisode(t *testing.T) {
	s := newTestScheduler(t, finishedHandler(nil), testEpisode)
	s.Start(context.Background())
	defer s.Stop()

	if err := s.ForceSearch("tvdb-1-s01e01"); !errors.Is(err, ErrUnknownEpisode) {
		t.Errorf("ForceSearch() error = %v, want ErrUnknownEpisode", err)
	}
}

func TestScheduler_ForceSearchBeforeStart(t *testing.T) {
	s := newTestScheduler(t, finishedHandler(nil), testEpisode)

	if err := s.ForceSearch(testEpisode.Key()); !errors.Is(err, ErrSchedulerStopped) {
		t.Errorf("ForceSearch() error = %v, want ErrSchedulerStopped", err)
	}
	s.Stop()
}

// TestScheduler_StopBeforeStart verifies that Stop on a scheduler that was
// never started is a safe no-op and closes the results channel.
func TestScheduler_StopBeforeStart(t *testing.T) {
	s := newTestScheduler(t, finishedHandler(nil), testEpisode)

	s.Stop()

	if _, ok := <-s.Results(); ok {
		t.Error("Results() should be closed after Stop")
	}
}

func TestScheduler_StopTwice(t *testing.T) {
	s := newTestScheduler(t, finishedHandler(nil), testEpisode)
	s.Start(context.Background())

	s.Stop()
	s.Stop()
}

func TestScheduler_StopBeforeStartThenStart(t *testing.T) {
	s := newTestScheduler(t, finishedHandler(nil), testEpisode)

	s.Stop()
	s.Start(context.TODO())
	s.Stop()
}

// TestScheduler_StopWhilePolling verifies that Stop interrupts loops that
// are waiting for their next tick.
func TestScheduler_StopWhilePolling(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"searching"}`))
	})
	s := newTestScheduler(t, handler, testEpisode)
	s.Start(context.Background())

	_ = nextUpdate(t, s)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return while a loop was waiting")
	}

	for range s.Results() {
	}
}

func TestScheduler_ContextCancellation(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"queued"}`))
	})
	s := newTestScheduler(t, handler, testEpisode)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	_ = nextUpdate(t, s)

	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Stop() did not complete after parent context cancellation")
	}
}
