package cache

import (
	"container/list"
	"sync"
	"time"

	"chii/internal/obs"
)

// Local 是进程内的 LRU + TTL 缓存，不跨进程共享。
//
// nil *Local 表示禁用缓存。
type Local[K comparable, V any] struct {
	name       string
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	ll         list.List
	items      map[K]*list.Element
}

type localEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

func NewLocal[K comparable, V any](name string, maxEntries int, ttl time.Duration) *Local[K, V] {
	if maxEntries <= 0 || ttl <= 0 {
		return nil
	}
	return &Local[K, V]{
		name:       name,
		ttl:        ttl,
		maxEntries: maxEntries,
		items:      make(map[K]*list.Element, maxEntries),
	}
}

func (c *Local[K, V]) Get(now time.Time, key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		obs.RecordCacheResult(c.name, obs.CacheMiss)
		return zero, false
	}
	ent := el.Value.(*localEntry[K, V])
	if !now.Before(ent.expiresAt) {
		c.ll.Remove(el)
		delete(c.items, key)
		obs.RecordCacheResult(c.name, obs.CacheMiss)
		return zero, false
	}
	c.ll.MoveToFront(el)
	obs.RecordCacheResult(c.name, obs.CacheHit)
	return ent.value, true
}

func (c *Local[K, V]) Set(now time.Time, key K, value V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*localEntry[K, V])
		ent.value = value
		ent.expiresAt = now.Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&localEntry[K, V]{
		key:       key,
		value:     value,
		expiresAt: now.Add(c.ttl),
	})
	c.items[key] = el

	for c.ll.Len() > c.maxEntries {
		back := c.ll.Back()
		if back == nil {
			break
		}
		be := back.Value.(*localEntry[K, V])
		delete(c.items, be.key)
		c.ll.Remove(back)
	}
}

func (c *Local[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
