// Package cache provides the in-process read-through cache used to absorb
// repeated list/config reads between mutations. Entries carry a TTL from
// write time and expire lazily on read; writers invalidate by exact key or
// by key prefix after every mutation, so the TTL is a freshness bound for
// external writers, not the primary consistency mechanism.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL'd key/value map safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	items      map[string]entry
	defaultTTL time.Duration
}

// New returns an empty cache. defaultTTL applies to Set calls with a
// non-positive ttl.
func New(defaultTTL time.Duration) *Cache {
	return &Cache{
		items:      make(map[string]entry),
		defaultTTL: defaultTTL,
	}
}

// Get returns the live value stored under key. Expired entries are removed
// on access and reported as absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a fresh Set may have raced us.
		if cur, ok := c.items[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl uses the cache's
// default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.items[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix removes every key starting with prefix and returns how many
// entries were dropped. Mutations of orders use this to blow away all
// role-scoped order listings at once.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	c.mu.Unlock()
	return n
}

// Sweep removes expired entries and returns how many were dropped. Expiry
// is already enforced lazily on Get; sweeping only bounds memory for keys
// that are never read again.
func (c *Cache) Sweep() int {
	now := time.Now()
	c.mu.Lock()
	n := 0
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
			n++
		}
	}
	c.mu.Unlock()
	return n
}

// Len returns the number of stored entries, including not-yet-swept
// expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// StartSweeper runs Sweep every interval until ctx is done. It is a memory
// hygiene loop only; correctness never depends on it running.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				c.Sweep()
			}
		}
	}()
}
