package store

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Records are keyed by episode key; a new record replaces the previous one.
// Subscriber channels are buffered and sends never block: a subscriber with
// a full buffer misses that update.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]StatusRecord

	subMu       sync.RWMutex
	subscribers map[chan StatusRecord]struct{}
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]StatusRecord),
		subscribers: make(map[chan StatusRecord]struct{}),
	}
}

// Update stores record and notifies all subscribers.
func (m *MemoryStore) Update(record StatusRecord) {
	m.mu.Lock()
	m.records[record.Key] = record
	m.mu.Unlock()

	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for ch := range m.subscribers {
		select {
		case ch <- record:
		default:
		}
	}
}

// Get returns the record stored under key.
func (m *MemoryStore) Get(key string) (StatusRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[key]
	return r, ok
}

// GetAll returns a snapshot of all records sorted by key.
func (m *MemoryStore) GetAll() []StatusRecord {
	m.mu.RLock()
	out := make([]StatusRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Subscribe registers a new subscriber.
func (m *MemoryStore) Subscribe() <-chan StatusRecord {
	ch := make(chan StatusRecord, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan StatusRecord) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			return
		}
	}
}
