package payments

import (
	"sync"
	"time"
)

// MemoryEventStore remembers the ids of handled webhook events for a while,
// so a redelivery is acknowledged without running the handlers again. It
// lives in memory only and is lost on restart.
type MemoryEventStore struct {
	events map[string]time.Time
	mutex  sync.RWMutex
	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
}

// NewMemoryEventStore creates a new in-memory event store
func NewMemoryEventStore(ttl time.Duration) *MemoryEventStore {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	store := &MemoryEventStore{
		events: make(map[string]time.Time),
		ttl:    ttl,
		stop:   make(chan struct{}),
	}
	go store.cleanup(cleanupInterval(ttl))
	return store
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < time.Hour {
		return ttl
	}
	return time.Hour
}

// EventExists checks if an event has already been processed and is not expired.
func (m *MemoryEventStore) EventExists(eventID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	at, exists := m.events[eventID]
	return exists && time.Since(at) <= m.ttl
}

// MarkProcessed marks an event as processed
func (m *MemoryEventStore) MarkProcessed(eventID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events[eventID] = time.Now()
}

// Size returns the number of stored events
func (m *MemoryEventStore) Size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.events)
}

// Close stops the cleanup goroutine.
func (m *MemoryEventStore) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *MemoryEventStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.expire()
		}
	}
}

func (m *MemoryEventStore) expire() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	now := time.Now()
	for eventID, at := range m.events {
		if now.Sub(at) > m.ttl {
			delete(m.events, eventID)
		}
	}
}
