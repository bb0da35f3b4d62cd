package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type window struct {
	count   int64
	resetAt time.Time
}

// Memory keeps windows in a bounded LRU. Counts are per process.
type Memory struct {
	mu      sync.Mutex
	windows *lru.Cache[string, window]
	now     func() time.Time
}

const defaultMemoryKeys = 10000

func NewMemory(size int) (*Memory, error) {
	return NewMemoryWithClock(size, time.Now)
}

func NewMemoryWithClock(size int, now func() time.Time) (*Memory, error) {
	if size <= 0 {
		size = defaultMemoryKeys
	}
	cache, err := lru.New[string, window](size)
	if err != nil {
		return nil, fmt.Errorf("create rate limit cache: %w", err)
	}
	return &Memory{windows: cache, now: now}, nil
}

func (m *Memory) Allow(_ context.Context, p Policy, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := p.Name + ":" + key
	w, ok := m.windows.Get(k)
	if !ok || !now.Before(w.resetAt) {
		w = window{resetAt: now.Add(p.Window)}
	}
	w.count++
	m.windows.Add(k, w)

	return decide(p, w.count, w.resetAt.Sub(now)), nil
}
