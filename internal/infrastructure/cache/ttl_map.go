package cache

import (
	"sync"
	"time"
)

const cleanupInterval = 5 * time.Minute

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// ttlMap is a mutex-guarded map whose entries expire. A background loop
// drops expired entries until close is called.
type ttlMap[V any] struct {
	mu        sync.RWMutex
	entries   map[string]item[V]
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newTTLMap[V any](now func() time.Time) *ttlMap[V] {
	m := &ttlMap[V]{
		entries:  make(map[string]item[V]),
		now:      now,
		stopChan: make(chan struct{}),
	}
	m.wg.Add(1)
	go m.cleanupLoop()
	return m
}

// get returns the live value for key
func (m *ttlMap[V]) get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// set stores value for ttl, replacing any previous value
func (m *ttlMap[V]) set(key string, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = item[V]{value: value, expiresAt: m.now().Add(ttl)}
}

// setIfAbsent stores value only when key has no live entry
func (m *ttlMap[V]) setIfAbsent(key string, value V, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[key]; ok && now.Before(e.expiresAt) {
		return false
	}
	m.entries[key] = item[V]{value: value, expiresAt: now.Add(ttl)}
	return true
}

func (m *ttlMap[V]) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *ttlMap[V]) close() {
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()
	})
}

func (m *ttlMap[V]) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *ttlMap[V]) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}
