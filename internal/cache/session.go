// Package cache holds recent search pages in memory so repeated identical
// searches within a session skip the catalog round trip.
package cache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/nkosimano/ChartedArt-sub001/internal/domain"
)

const (
	defaultTTL        = 5 * time.Minute
	defaultMaxEntries = 100
)

type entry struct {
	page     domain.SearchPage
	storedAt time.Time
}

// SessionCache is an exact-key, size-bounded cache of search pages. Stale
// entries count as misses; they are overwritten on the next put or evicted
// when room is needed. Safe for concurrent use.
type SessionCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewSessionCache returns a cache with a 5-minute TTL and a 100-entry cap.
func NewSessionCache() *SessionCache {
	return &SessionCache{
		entries:    make(map[string]entry),
		ttl:        defaultTTL,
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
}

// Key builds a stable cache key from the filters and page coordinates.
// Multi-value filter sets are sorted in a copy first so logically equal
// filters produce identical keys.
func Key(filters domain.SearchFilters, page, perPage int) string {
	normalized := filters
	normalized.Categories = sortedCopy(filters.Categories)
	normalized.Styles = sortedCopy(filters.Styles)
	normalized.Mediums = sortedCopy(filters.Mediums)
	normalized.ArtistIDs = sortedCopy(filters.ArtistIDs)
	normalized.Colors = sortedCopy(filters.Colors)
	normalized.Tags = sortedCopy(filters.Tags)

	payload := struct {
		Filters domain.SearchFilters `json:"filters"`
		Page    int                  `json:"page"`
		PerPage int                  `json:"per_page"`
	}{normalized, page, perPage}

	// SearchFilters marshals deterministically: fixed field order, sorted sets.
	raw, _ := json.Marshal(payload)
	return string(raw)
}

// Get returns the cached page for the key, or ok=false on a miss. An entry
// older than the TTL is a miss; it is not purged here.
func (c *SessionCache) Get(key string) (domain.SearchPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) > c.ttl {
		return domain.SearchPage{}, false
	}
	return e.page, true
}

// Put stores the page under the key. When the store is full and the key is
// new, the entry with the oldest timestamp is evicted first.
func (c *SessionCache) Put(key string, page domain.SearchPage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{page: page, storedAt: c.now()}
}

// Flush drops every entry. Called when catalog change events arrive.
func (c *SessionCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports the current entry count.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *SessionCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
