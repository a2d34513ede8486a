package source

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"go.uber.org/zap"
)

// Cache stores raw adapter responses as JSON. Get reports whether key existed.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Cached serves repeated suggest/measure calls from cache. Only successful
// responses are stored; a cache failure falls through to the live adapter.
type Cached struct {
	cache  Cache
	logger *zap.Logger
}

func NewCached(cache Cache, logger *zap.Logger) *Cached {
	return &Cached{cache: cache, logger: logger}
}

func cacheKey(op, source, keyword string) string {
	return fmt.Sprintf("%s%s:%s:%s", constants.RedisConfig.KeyPrefix, op, source, keyword)
}

func (c *Cached) load(ctx context.Context, key string, dest any) bool {
	found, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.Warn("Response cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (c *Cached) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn("Response cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cached) Suggester(s Suggester) Suggester {
	return &cachedSuggester{inner: s, cached: c}
}

func (c *Cached) Measurer(m Measurer) Measurer {
	return &cachedMeasurer{inner: m, cached: c}
}

type cachedSuggester struct {
	inner  Suggester
	cached *Cached
}

func (s *cachedSuggester) Name() string { return s.inner.Name() }

func (s *cachedSuggester) Kind() Kind { return KindOf(s.inner) }

func (s *cachedSuggester) Paced() bool { return IsPaced(s.inner) }

func (s *cachedSuggester) Suggest(ctx context.Context, seed string) ([]string, error) {
	key := cacheKey("suggest", s.inner.Name(), seed)
	var hit []string
	if s.cached.load(ctx, key, &hit) {
		return hit, nil
	}

	out, err := s.inner.Suggest(ctx, seed)
	if err != nil {
		return nil, err
	}
	s.cached.store(ctx, key, out, constants.CacheTTL.Suggestions)
	return out, nil
}

type cachedMeasurer struct {
	inner  Measurer
	cached *Cached
}

func (m *cachedMeasurer) Name() string { return m.inner.Name() }

func (m *cachedMeasurer) Kind() Kind { return KindOf(m.inner) }

func (m *cachedMeasurer) Paced() bool { return IsPaced(m.inner) }

func (m *cachedMeasurer) Measure(ctx context.Context, keyword string) (domain.SignalSet, error) {
	key := cacheKey("measure", m.inner.Name(), keyword)
	var raw map[string]float64
	if m.cached.load(ctx, key, &raw) {
		hit := domain.NewSignalSet()
		for name, value := range raw {
			hit.Set(domain.SignalName(name), value)
		}
		return hit, nil
	}

	out, err := m.inner.Measure(ctx, keyword)
	if err != nil {
		return nil, err
	}
	m.cached.store(ctx, key, out, constants.CacheTTL.Measurements)
	return out, nil
}
