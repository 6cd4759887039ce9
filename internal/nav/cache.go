package nav

import (
	"container/list"
	"fmt"
	"math"

	"gridwar/server/internal/geom"
)

// pathCache memoizes resolved paths under a coarse bucketed key so nearby
// repeat queries within the TTL reuse the previous result. Expiry runs on
// simulated time, never the wall clock.
type pathCache struct {
	capacity int
	ttl      float64
	entries  map[string]*list.Element
	order    *list.List // front = oldest
}

type cacheEntry struct {
	key       string
	path      []geom.Vec2
	expiresAt float64
}

func newPathCache(capacity int, ttl float64) *pathCache {
	if capacity < 1 {
		capacity = 1
	}
	return &pathCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// cacheKey buckets both endpoints to nav-cell resolution.
func cacheKey(start, end geom.Vec2, cellSize float64) string {
	if cellSize <= 0 {
		cellSize = 1
	}
	return fmt.Sprintf("%d:%d:%d:%d",
		int(math.Floor(start.X/cellSize)), int(math.Floor(start.Z/cellSize)),
		int(math.Floor(end.X/cellSize)), int(math.Floor(end.Z/cellSize)))
}

func (c *pathCache) get(key string, now float64) ([]geom.Vec2, bool) {
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if now > entry.expiresAt {
		c.remove(elem)
		return nil, false
	}
	return append([]geom.Vec2(nil), entry.path...), true
}

func (c *pathCache) put(key string, path []geom.Vec2, now float64) {
	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
	for len(c.entries) >= c.capacity {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.remove(oldest)
	}
	entry := &cacheEntry{
		key:       key,
		path:      append([]geom.Vec2(nil), path...),
		expiresAt: now + c.ttl,
	}
	c.entries[key] = c.order.PushBack(entry)
}

func (c *pathCache) remove(elem *list.Element) {
	entry := c.order.Remove(elem).(*cacheEntry)
	delete(c.entries, entry.key)
}

func (c *pathCache) len() int {
	return len(c.entries)
}

func (c *pathCache) clear() {
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}
