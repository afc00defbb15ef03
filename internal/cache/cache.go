// Package cache provides a TTL-bound cache of DNS answers keyed by the
// question they resolve.
package cache

import (
	"sync"
	"time"

	"github.com/vinayakankugoyal/rdns-forwarder/internal/dns"
)

// MinTTL is the floor applied to every cache entry's effective TTL,
// regardless of how short the upstream answers' own TTLs are.
const MinTTL = 300 * time.Second

// Key identifies a cached question by name, type, and class.
type Key struct {
	Name  string
	Type  uint16
	Class uint16
}

// KeyFor derives a cache key from a parsed question. The name is assumed
// already normalized (lowercase, no trailing dot).
func KeyFor(q dns.Question) Key {
	return Key{Name: q.Name, Type: q.Type, Class: q.Class}
}

type entry struct {
	answers   []dns.Record
	expiresAt time.Time
}

// Cache is a mutex-guarded map of answers with a TTL floor, reaped
// periodically rather than on an LRU schedule: spec.md's cache has no size
// bound, only a minimum time-to-live.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]entry)}
}

// Get returns the cached answers for key if present and not expired as of
// now.
func (c *Cache) Get(key Key, now time.Time) ([]dns.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !e.expiresAt.After(now) {
		return nil, false
	}
	return e.answers, true
}

// Set stores answers under key, with an effective TTL of
// max(min(answer TTLs), MinTTL). An empty answer set is stored with MinTTL.
func (c *Cache) Set(key Key, answers []dns.Record, now time.Time) {
	ttl := effectiveTTL(answers)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{answers: answers, expiresAt: now.Add(ttl)}
}

// effectiveTTL computes max(min(rr.TTL for rr in answers), MinTTL).
func effectiveTTL(answers []dns.Record) time.Duration {
	if len(answers) == 0 {
		return MinTTL
	}
	min := answers[0].TTL
	for _, rr := range answers[1:] {
		if rr.TTL < min {
			min = rr.TTL
		}
	}
	ttl := time.Duration(min) * time.Second
	if ttl < MinTTL {
		return MinTTL
	}
	return ttl
}

// Cleanup removes every entry whose expiry is at or before threshold.
// The engine calls this on a periodic reaper tick.
func (c *Cache) Cleanup(threshold time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if !e.expiresAt.After(threshold) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the current number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
