package enrollclient

import "sync"

// Cache resources used by the managers.
const (
	ResourceCourses          = "courses"
	ResourceStudents         = "students"
	ResourceCoursePartition  = "course-partition"
	ResourceStudentPartition = "student-partition"
)

// QueryKey identifies one cached query. AnchorID is zero for flat lists.
type QueryKey struct {
	Resource string
	AnchorID int64
}

type cacheEntry struct {
	value interface{}
	stale bool
}

// QueryCache holds fetched query results keyed by QueryKey. Invalidation marks entries
// stale instead of dropping them so views can keep rendering until the refetch lands.
type QueryCache struct {
	mu      sync.Mutex
	entries map[QueryKey]cacheEntry
}

// NewQueryCache constructs an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[QueryKey]cacheEntry)}
}

// Get returns the cached value and whether it has been invalidated since it was stored.
func (c *QueryCache) Get(key QueryKey) (value interface{}, stale bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry.value, entry.stale, ok
}

// Set stores a fresh value.
func (c *QueryCache) Set(key QueryKey, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value}
}

// Invalidate marks one entry stale.
func (c *QueryCache) Invalidate(key QueryKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		entry.stale = true
		c.entries[key] = entry
	}
}

// InvalidateResource marks every entry of resource stale.
func (c *QueryCache) InvalidateResource(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if key.Resource == resource {
			entry.stale = true
			c.entries[key] = entry
		}
	}
}

// snapshot captures an entry, including its stale flag, for a later restore.
func (c *QueryCache) snapshot(key QueryKey) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func (c *QueryCache) restore(key QueryKey, entry cacheEntry, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !present {
		delete(c.entries, key)
		return
	}
	c.entries[key] = entry
}
