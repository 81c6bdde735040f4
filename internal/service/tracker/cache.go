package tracker

import (
	"sync"
	"time"

	"github.com/surgeseven/settlement/internal/models"
)

// snapshotCache is a read-through cache for canonical positions, keyed by
// tracker id. It holds the unredacted position; projection happens at the
// response boundary, so staff and regular callers can share one entry.
type snapshotCache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	entries map[string]cacheEntry
}

type cacheEntry struct {
	position models.Position
	storedAt time.Time
}

func newSnapshotCache(ttl time.Duration, now func() time.Time) *snapshotCache {
	return &snapshotCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *snapshotCache) get(trackerID string) (models.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[trackerID]
	if !ok {
		return models.Position{}, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, trackerID)
		return models.Position{}, false
	}

	return entry.position, true
}

func (c *snapshotCache) put(trackerID string, position models.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	// Drop whatever already expired so the map does not grow unbounded
	for id, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, id)
		}
	}

	c.entries[trackerID] = cacheEntry{position: position, storedAt: now}
}
