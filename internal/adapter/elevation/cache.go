package elevation

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/observability"
)

// CachedProvider wraps an ElevationProvider with an in-memory LRU cache
// shared across runs.
type CachedProvider struct {
	inner   domain.ElevationProvider
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around an elevation provider.
func NewCachedProvider(inner domain.ElevationProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) ElevationAt(ctx context.Context, lat, lon float64) (float64, error) {
	key := cacheKey(lat, lon)
	if v, ok := c.cache.get(key); ok {
		c.metrics.ElevationCache.WithLabelValues("hit").Inc()
		return v, nil
	}
	c.metrics.ElevationCache.WithLabelValues("miss").Inc()

	v, err := c.inner.ElevationAt(ctx, lat, lon)
	if err != nil {
		return v, err
	}
	c.cache.put(key, v)
	return v, nil
}

// ElevationsAt serves cached coordinates and forwards only the misses, in one
// batch when the inner provider supports it.
func (c *CachedProvider) ElevationsAt(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
	out := make([]float64, len(coords))
	var missIdx []int
	var misses []domain.Coordinate
	for i, co := range coords {
		if v, ok := c.cache.get(cacheKey(co.Lat, co.Lon)); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		misses = append(misses, co)
	}
	c.metrics.ElevationCache.WithLabelValues("hit").Add(float64(len(coords) - len(misses)))
	c.metrics.ElevationCache.WithLabelValues("miss").Add(float64(len(misses)))
	if len(misses) == 0 {
		return out, nil
	}

	values, err := c.fetchMisses(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(values) != len(misses) {
		return nil, fmt.Errorf("elevation provider returned %d values for %d coordinates", len(values), len(misses))
	}
	for j, i := range missIdx {
		out[i] = values[j]
		// Gaps are not cached so a backfilled tile is picked up on the next run.
		if !math.IsNaN(values[j]) {
			c.cache.put(cacheKey(misses[j].Lat, misses[j].Lon), values[j])
		}
	}
	return out, nil
}

func (c *CachedProvider) fetchMisses(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
	if batch, ok := c.inner.(domain.BatchElevationProvider); ok {
		return batch.ElevationsAt(ctx, coords)
	}
	values := make([]float64, len(coords))
	for i, co := range coords {
		v, err := c.inner.ElevationAt(ctx, co.Lat, co.Lon)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			v = math.NaN()
		}
		values[i] = v
	}
	return values, nil
}

// cacheKey rounds to six decimals, about 0.1 m, so float noise in lattice
// arithmetic does not defeat the cache.
func cacheKey(lat, lon float64) domain.Coordinate {
	return domain.Coordinate{Lat: round6(lat), Lon: round6(lon)}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// lruCache is a simple thread-safe LRU cache of elevations.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[domain.Coordinate]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   domain.Coordinate
	value float64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[domain.Coordinate]*entry),
	}
}

func (c *lruCache) get(key domain.Coordinate) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key domain.Coordinate, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
