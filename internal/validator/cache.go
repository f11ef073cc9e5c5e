// internal/validator/cache.go
package validator

import (
	"container/list"
	"sync"

	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * Result cache.
 *
 * Keyed by row fingerprint. Unbounded by default; a positive limit turns it
 * into an LRU so long imports with high identity cardinality stay within a
 * predictable footprint. The engine clears it wholesale whenever the
 * catalogue revision moves, so entries never outlive the rules that
 * produced them.
 */

type cacheEntry struct {
	key    string
	result types.Result
}

type resultCache struct {
	mu    sync.Mutex
	limit int
	items map[string]*list.Element
	order *list.List
}

func newResultCache(limit int) *resultCache {
	return &resultCache{
		limit: limit,
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

func (c *resultCache) get(key string) (types.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return types.Result{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).result, true
}

func (c *resultCache) put(key string, result types.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).result = result
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&cacheEntry{key: key, result: result})

	if c.limit > 0 && c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
