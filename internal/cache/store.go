// Package cache is the in-memory TTL layer between the services and the
// FPL API. Nothing outlives the process; a failed refresh simply leaves
// the key empty until the next poll.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"fpl-tracker/internal/config"
	"fpl-tracker/internal/metrics"

	"github.com/rs/zerolog"
)

type entry struct {
	value     any
	expiresAt time.Time
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewStore(cfg *config.Config, logger zerolog.Logger) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     cfg.CacheTTL,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.now().After(e.expiresAt) {
		metrics.RecordCacheMiss(keyPrefix(key))
		return nil, false
	}
	metrics.RecordCacheHit(keyPrefix(key))
	return e.value, true
}

func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
}

// Delete removes a key regardless of freshness.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func keyPrefix(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// Fetch returns the cached value for key or runs load and caches the
// result for ttl. Load errors are returned as-is and nothing is cached,
// so the next call retries.
func Fetch[T any](ctx context.Context, s *Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if raw, ok := s.Get(key); ok {
		if v, ok := raw.(T); ok {
			return v, nil
		}
		// type changed across a deploy or a key collision; refetch
		s.logger.Warn().Str("key", key).Msg("cached value has unexpected type, refetching")
		s.Delete(key)
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.Set(key, v, ttl)
	return v, nil
}
