// Package cache memoizes extraction results per resort for a bounded time
// window, so repeated passes do not re-fetch resort pages.
//
// Failed fetches are cached like successes to avoid hammering an unreachable
// site. Concurrent lookups of the same key share one computation.
package cache

import (
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pfrederiksen/ski-status/internal/resort"
)

// DefaultTTL is the validity window of a cached result.
const DefaultTTL = time.Hour

// Key identifies a cached result
type Key struct {
	ResortID string
	URL      string
}

// String encodes the key for the store. The ID is quoted, so no two keys
// share an encoding whatever characters they contain.
func (k Key) String() string {
	return strconv.Quote(k.ResortID) + k.URL
}

// KeyFor returns the cache key of a source.
func KeyFor(src resort.Source) Key {
	return Key{ResortID: src.ID, URL: src.URL}
}

// Entry is a stored result with its expiry time
type Entry struct {
	Result    resort.ExtractionResult
	ExpiresAt time.Time
}

// Store holds entries. Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, e Entry)
	Delete(key string)
	Keys() []string
	Len() int
	Purge()
}

// Options configures a Cache
type Options struct {
	TTL        time.Duration    // default DefaultTTL
	MaxEntries int              // 0 keeps every key; >0 bounds the store with LRU eviction
	Now        func() time.Time // clock, default time.Now
}

// Stats counts lookups
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Cache is a TTL cache of extraction results with single-flight computation
type Cache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache.
func New(opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var store Store
	if opts.MaxEntries > 0 {
		store = newLRUStore(opts.MaxEntries, opts.TTL)
	} else {
		store = newMemoryStore()
	}

	return &Cache{
		store: store,
		ttl:   opts.TTL,
		now:   opts.Now,
	}
}

// TTL returns the validity window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached result for key if it has not expired. Expired
// entries are removed.
func (c *Cache) Get(key Key) (resort.ExtractionResult, bool) {
	k := key.String()
	e, ok := c.store.Get(k)
	if !ok {
		return resort.ExtractionResult{}, false
	}
	if c.now().After(e.ExpiresAt) {
		c.store.Delete(k)
		return resort.ExtractionResult{}, false
	}
	return e.Result, true
}

// Set stores result under key, replacing any previous entry.
func (c *Cache) Set(key Key, result resort.ExtractionResult) {
	c.store.Set(key.String(), Entry{
		Result:    result,
		ExpiresAt: c.now().Add(c.ttl),
	})
}

// GetOrCompute returns the cached result for key, or runs compute, stores its
// result and returns it. While a computation for key is in flight, other
// callers for the same key wait for it instead of computing again. The second
// return value reports a cache hit.
func (c *Cache) GetOrCompute(key Key, compute func() resort.ExtractionResult) (resort.ExtractionResult, bool) {
	if r, ok := c.Get(key); ok {
		c.hits.Add(1)
		return r, true
	}

	computed := false
	v, _, _ := c.group.Do(key.String(), func() (interface{}, error) {
		// A flight for this key may have finished between Get and Do
		if r, ok := c.Get(key); ok {
			return r, nil
		}
		computed = true
		r := compute()
		c.Set(key, r)
		return r, nil
	})

	if computed {
		c.misses.Add(1)
	} else {
		c.hits.Add(1)
	}
	return v.(resort.ExtractionResult), !computed
}

// Invalidate removes key.
func (c *Cache) Invalidate(key Key) {
	c.store.Delete(key.String())
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.store.Purge()
}

// CleanExpired removes expired entries and returns how many were removed.
func (c *Cache) CleanExpired() int {
	removed := 0
	now := c.now()
	for _, k := range c.store.Keys() {
		e, ok := c.store.Get(k)
		if ok && now.After(e.ExpiresAt) {
			c.store.Delete(k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	return c.store.Len()
}

// Stats returns lookup counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}
