package store

import (
	"sync"
	"testing"
	"time"
)

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}
	if len(store.GetAll()) != 0 {
		t.Errorf("GetAll() = %v items, want 0", len(store.GetAll()))
	}
}

func TestMemoryStore_UpdateAndGet(t *testing.T) {
	store := NewMemoryStore()

	store.Update(StatusRecord{
		Key:            "tvdb-101-s02e05",
		Indexer:        "tvdb",
		SeriesID:       101,
		Season:         2,
		Episode:        5,
		Result:         "searching",
		Message:        "The episode is being searched, please wait...",
		Polling:        true,
		NextCheckMs:    5000,
		ResponseTimeMs: 12,
		CheckedAt:      time.Now(),
	})

	got, ok := store.Get("tvdb-101-s02e05")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got.Result != "searching" {
		t.Errorf("Get().Result = %q, want %q", got.Result, "searching")
	}
	if got.TriggerEnabled {
		t.Error("Get().TriggerEnabled = true, want false")
	}

	if _, ok := store.Get("tvdb-1-s01e01"); ok {
		t.Error("Get() ok = true for unknown key")
	}
}

func TestMemoryStore_UpdateOverwrites(t *testing.T) {
	store := NewMemoryStore()

	store.Update(StatusRecord{Key: "k", Result: "queued", NextCheckMs: 7000})
	store.Update(StatusRecord{Key: "k", Result: "searching", NextCheckMs: 5000})
	store.Update(StatusRecord{Key: "k", Result: "finished", TriggerEnabled: true})

	all := store.GetAll()
	if len(all) != 1 {
		t.Fatalf("GetAll() = %v items, want 1", len(all))
	}
	if all[0].Result != "finished" || !all[0].TriggerEnabled {
		t.Errorf("GetAll()[0] = %+v, want finished with trigger enabled", all[0])
	}
}

func TestMemoryStore_GetAllSortedByKey(t *testing.T) {
	store := NewMemoryStore()

	store.Update(StatusRecord{Key: "tvdb-3-s01e01"})
	store.Update(StatusRecord{Key: "tvdb-1-s01e01"})
	store.Update(StatusRecord{Key: "tvdb-2-s01e01"})

	all := store.GetAll()
	want := []string{"tvdb-1-s01e01", "tvdb-2-s01e01", "tvdb-3-s01e01"}
	for i, key := range want {
		if all[i].Key != key {
			t.Errorf("GetAll()[%d].Key = %q, want %q", i, all[i].Key, key)
		}
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()
	ch := store.Subscribe()

	go store.Update(StatusRecord{Key: "k", Result: "queued"})

	select {
	case record := <-ch:
		if record.Key != "k" {
			t.Errorf("received Key = %q, want %q", record.Key, "k")
		}
	case <-time.After(time.Second):
		t.Error("Subscribe() channel did not receive update")
	}
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore()

	ch1 := store.Subscribe()
	ch2 := store.Subscribe()

	go store.Update(StatusRecord{Key: "k"})

	received := 0
	timeout := time.After(time.Second)
	for received < 2 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-timeout:
			t.Fatalf("only received %d/2 updates", received)
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	store.Unsubscribe(ch)
	store.Unsubscribe(ch) // second call is a no-op

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Subscribe() // never read

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			store.Update(StatusRecord{Key: "k"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Update() blocked on slow subscriber")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Update(StatusRecord{Key: "k", Result: "searching"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = store.GetAll()
				_, _ = store.Get("k")
			}
		}()
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}
	wg.Wait()
}
