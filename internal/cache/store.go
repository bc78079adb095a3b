package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryStore keeps every key until it is deleted
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]Entry)}
}

func (s *memoryStore) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

func (s *memoryStore) Set(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
}

func (s *memoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *memoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

func (s *memoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *memoryStore) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
}

// lruStore bounds the number of keys, evicting the least recently used.
// Its own TTL is a backstop; Cache still checks ExpiresAt on every read.
type lruStore struct {
	lru *expirable.LRU[string, Entry]
}

func newLRUStore(size int, ttl time.Duration) *lruStore {
	return &lruStore{lru: expirable.NewLRU[string, Entry](size, nil, ttl)}
}

func (s *lruStore) Get(key string) (Entry, bool) {
	return s.lru.Get(key)
}

func (s *lruStore) Set(key string, e Entry) {
	s.lru.Add(key, e)
}

func (s *lruStore) Delete(key string) {
	s.lru.Remove(key)
}

func (s *lruStore) Keys() []string {
	return s.lru.Keys()
}

func (s *lruStore) Len() int {
	return s.lru.Len()
}

func (s *lruStore) Purge() {
	s.lru.Purge()
}
