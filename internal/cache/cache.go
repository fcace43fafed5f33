// Package cache 提供带 TTL 的读穿缓存：可共享的 KV 后端（badger）与进程内 LRU 缓存。
//
// 缓存只是权威存储前面的加速层：后端不可用一律按未命中处理，由调用方回源。
package cache

import (
	"context"
	"log/slog"
	"time"

	"chii/internal/obs"
)

// Cache 是通用的 TTL KV 后端。值按拷贝存取（序列化），调用方拿到的永远是独立副本。
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Keyspace 是某一类数据在共享后端中的视图：固定的 key 格式、TTL 与值类型。
//
// nil *Keyspace 是合法的“禁用缓存”，所有读取均未命中。
type Keyspace[K any, V any] struct {
	name    string
	backend Cache
	ttl     time.Duration
	key     func(K) string
}

func NewKeyspace[K any, V any](backend Cache, name string, ttl time.Duration, key func(K) string) *Keyspace[K, V] {
	if backend == nil || ttl <= 0 || key == nil {
		return nil
	}
	return &Keyspace[K, V]{
		name:    name,
		backend: backend,
		ttl:     ttl,
		key:     key,
	}
}

func (k *Keyspace[K, V]) Name() string {
	if k == nil {
		return ""
	}
	return k.name
}

func (k *Keyspace[K, V]) TTL() time.Duration {
	if k == nil {
		return 0
	}
	return k.ttl
}

func (k *Keyspace[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zero V
	if k == nil {
		return zero, false
	}
	var v V
	ok, err := k.backend.Get(ctx, k.key(key), &v)
	if err != nil {
		obs.RecordCacheResult(k.name, obs.CacheError)
		slog.DebugContext(ctx, "读取缓存失败，回源查询", "cache", k.name, "err", err)
		return zero, false
	}
	if !ok {
		obs.RecordCacheResult(k.name, obs.CacheMiss)
		return zero, false
	}
	obs.RecordCacheResult(k.name, obs.CacheHit)
	return v, true
}

func (k *Keyspace[K, V]) Set(ctx context.Context, key K, value V) {
	if k == nil {
		return
	}
	if err := k.backend.Set(ctx, k.key(key), value, k.ttl); err != nil {
		obs.RecordCacheResult(k.name, obs.CacheError)
		slog.DebugContext(ctx, "写入缓存失败", "cache", k.name, "err", err)
	}
}
