// Package cache holds small in-process caches for data that changes rarely,
// such as the global category list.
package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"ems/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Loader fronts a Cache with a load function. Concurrent misses for the same
// key share one load.
type Loader[T any] struct {
	cache Cache[T]
	group singleflight.Group
	load  func(ctx context.Context, key string) (T, error)
}

// NewLoader wraps c. A nil c disables caching; every Get loads.
func NewLoader[T any](c Cache[T], load func(ctx context.Context, key string) (T, error)) *Loader[T] {
	return &Loader[T]{cache: c, load: load}
}

// Get returns the cached value for key or loads and stores it. Load errors
// are not cached.
func (l *Loader[T]) Get(ctx context.Context, key string) (T, error) {
	if l.cache != nil {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
	}
	v, err, _ := l.group.Do(key, func() (any, error) {
		v, err := l.load(ctx, key)
		if err != nil {
			return v, err
		}
		if l.cache != nil {
			l.cache.Set(key, v)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops key so the next Get reloads it.
func (l *Loader[T]) Invalidate(key string) {
	if l.cache != nil {
		l.cache.Delete(key)
	}
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically evicts expired entries from registered caches.
type Manager struct {
	caches []Cleaner
	logger *log.Logger
}

// NewManager creates a new cache manager
func NewManager() *Manager {
	return &Manager{logger: log.ForComponent(log.ComponentCache)}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// Run cleans every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				m.logger.Debug("Expired cache entries removed", "removed", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// CleanAll runs one cleanup pass and returns the number of entries removed.
func (m *Manager) CleanAll() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}
