package vimeo

import "sync"

// ResponseCache stores raw response payloads keyed by request fingerprint.
// Implementations must be safe for concurrent use; the pipeline looks up and
// stores from multiple in-flight requests at once. Eviction is the
// implementation's business.
type ResponseCache interface {
	// Lookup returns the payload cached for the fingerprint, if any.
	Lookup(fingerprint string) (Payload, bool)

	// Store caches a payload under the fingerprint, replacing any previous
	// entry.
	Store(fingerprint string, payload Payload)

	// Remove drops the entry for the fingerprint, if present.
	Remove(fingerprint string)

	// Clear drops every entry.
	Clear()
}

// MemoryCache is a ResponseCache backed by a map. The zero value is not
// usable; create one with NewMemoryCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Payload
}

// NewMemoryCache returns an empty in-memory response cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]Payload),
	}
}

// Lookup returns the payload cached for the fingerprint.
func (c *MemoryCache) Lookup(fingerprint string) (Payload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	payload, ok := c.entries[fingerprint]
	return payload, ok
}

// Store caches a payload under the fingerprint.
func (c *MemoryCache) Store(fingerprint string, payload Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fingerprint] = payload
}

// Remove drops the entry for the fingerprint.
func (c *MemoryCache) Remove(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, fingerprint)
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Payload)
}

// Size returns the number of cached payloads.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
