package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Memory 是进程内的 Cache 实现，用于开发与测试；语义与 badger 后端一致（按值序列化、惰性过期）。
type Memory struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		now:   time.Now,
		items: make(map[string]memoryEntry),
	}
}

// SetClock 仅用于测试。
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) Get(ctx context.Context, key string, dst any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	ent, ok := m.items[key]
	if ok && !m.now().Before(ent.expiresAt) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(ent.data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = memoryEntry{data: b, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
