package scheduler

import (
	"fmt"
	"sync"
	"time"
)

// evictionAge is how long a fire record is kept. Two days is enough to cover
// any clock skew around midnight while keeping the cache bounded by the
// number of rules that fired in that window.
const evictionAge = 48 * time.Hour

// fireCache remembers which (rule, calendar date) pairs have already fired
// so a rule triggers at most once per day regardless of how many engine
// ticks land inside its minute.
type fireCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newFireCache() *fireCache {
	return &fireCache{entries: make(map[string]time.Time)}
}

func fireKey(ruleID string, day time.Time) string {
	return fmt.Sprintf("%s|%s", ruleID, day.Format("2006-01-02"))
}

// MarkFired records the pair and reports whether it was already present.
// Stale entries are evicted on the way in.
func (c *fireCache) MarkFired(ruleID string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, at := range c.entries {
		if now.Sub(at) > evictionAge {
			delete(c.entries, key)
		}
	}

	key := fireKey(ruleID, now)
	if _, seen := c.entries[key]; seen {
		return true
	}
	c.entries[key] = now
	return false
}

// Clear releases the pair again. Called when a dispatch fails so the slot
// is not burned for the rest of the day.
func (c *fireCache) Clear(ruleID string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fireKey(ruleID, now))
}

func (c *fireCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
