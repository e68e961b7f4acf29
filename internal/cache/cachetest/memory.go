// Package cachetest provides an in-memory domain.Cache for tests.
package cachetest

import (
	"context"
	"strconv"
	"sync"
	"time"

	"campus-portal/internal/domain"
)

type item struct {
	str       string
	hash      map[string]string
	list      []string
	expiresAt time.Time
}

// Memory is a map-backed domain.Cache. Expiry is evaluated against Now.
type Memory struct {
	mu    sync.Mutex
	items map[string]*item
	Now   func() time.Time

	// Err, when set, is returned by every operation.
	Err error
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]*item), Now: time.Now}
}

func (m *Memory) live(key string) *item {
	it, ok := m.items[key]
	if !ok {
		return nil
	}
	if !it.expiresAt.IsZero() && !m.Now().Before(it.expiresAt) {
		delete(m.items, key)
		return nil
	}
	return it
}

func (m *Memory) ensure(key string) *item {
	it := m.live(key)
	if it == nil {
		it = &item{}
		m.items[key] = it
	}
	return it
}

// Has reports whether key currently exists.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(key) != nil
}

// TTL returns the remaining lifetime of key, or 0 when it has none.
func (m *Memory) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.live(key)
	if it == nil || it.expiresAt.IsZero() {
		return 0
	}
	return it.expiresAt.Sub(m.Now())
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	it := m.live(key)
	if it == nil || it.hash != nil || it.list != nil {
		return "", domain.ErrCacheMiss
	}
	return it.str, nil
}

func (m *Memory) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	it := &item{str: value}
	if expiration > 0 {
		it.expiresAt = m.Now().Add(expiration)
	}
	m.items[key] = it
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.items, key)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return m.Err
}

func (m *Memory) HGet(ctx context.Context, key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	it := m.live(key)
	if it == nil || it.hash == nil {
		return "", domain.ErrCacheMiss
	}
	v, ok := it.hash[field]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (m *Memory) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := map[string]string{}
	if it := m.live(key); it != nil {
		for k, v := range it.hash {
			out[k] = v
		}
	}
	return out, nil
}

func (m *Memory) HSet(ctx context.Context, key string, field string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	it := m.ensure(key)
	if it.hash == nil {
		it.hash = make(map[string]string)
	}
	it.hash[field] = value
	return nil
}

func (m *Memory) Expire(ctx context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if it := m.live(key); it != nil {
		it.expiresAt = m.Now().Add(expiration)
	}
	return nil
}

func (m *Memory) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	it := m.ensure(key)
	n, _ := strconv.ParseInt(it.str, 10, 64)
	n++
	it.str = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *Memory) RPush(ctx context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	it := m.ensure(key)
	it.list = append(it.list, values...)
	return nil
}

func (m *Memory) LPopCount(ctx context.Context, key string, count int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	it := m.live(key)
	if it == nil || len(it.list) == 0 {
		return []string{}, nil
	}
	if count > len(it.list) {
		count = len(it.list)
	}
	out := append([]string(nil), it.list[:count]...)
	it.list = it.list[count:]
	if len(it.list) == 0 {
		delete(m.items, key)
	}
	return out, nil
}

var _ domain.Cache = (*Memory)(nil)
