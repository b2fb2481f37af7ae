package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/errors"
	pkgredis "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/resilience"
)

const keyPrefix = "report:"

var ErrCacheMiss = errors.New("report cache miss")

// Cache stores finished reports by Key. Get returns ErrCacheMiss for an
// absent key.
type Cache interface {
	Get(ctx context.Context, key string) (*Report, error)
	Set(ctx context.Context, key string, r *Report) error
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

// MemoryCache is an in-process LRU in front of an optional slower Cache.
// Misses fall through to src and the result is kept locally; writes go to
// both levels.
type MemoryCache struct {
	cache *lru.Cache[string, *Report]
	src   Cache
}

func NewMemoryCache(size int, src Cache) (*MemoryCache, error) {
	cache, err := lru.New[string, *Report](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	return &MemoryCache{cache: cache, src: src}, nil
}

func (mc *MemoryCache) Get(ctx context.Context, key string) (*Report, error) {
	if r, ok := mc.cache.Get(key); ok {
		return r, nil
	}
	if mc.src == nil {
		return nil, ErrCacheMiss
	}
	r, err := mc.src.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	mc.cache.Add(key, r)
	return r, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, r *Report) error {
	mc.cache.Add(key, r)
	if mc.src == nil {
		return nil
	}
	return mc.src.Set(ctx, key, r)
}

func (mc *MemoryCache) Len() int {
	return mc.cache.Len()
}

// KV is the subset of the Redis client the report cache needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// RedisCache shares reports between processes. Calls go through a circuit
// breaker so an unreachable Redis turns into fast misses.
type RedisCache struct {
	kv      KV
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

func NewRedisCache(kv KV, ttl time.Duration) *RedisCache {
	return &RedisCache{
		kv:      kv,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("redis-report-cache", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "report-cache"),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Report, error) {
	var data []byte
	miss := false
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.kv.Get(ctx, keyPrefix+key)
		if pkgredis.IsNilError(err) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	if miss {
		return nil, ErrCacheMiss
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		return nil, ErrCacheMiss
	}
	return &r, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, r *Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report %s: %w", key, err)
	}
	err = c.breaker.Execute(func() error {
		return c.kv.Set(ctx, keyPrefix+key, data, c.ttl)
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Purge drops every cached report. Reports are keyed by text and
// parameters only, so a changed word list needs a purge.
func (c *RedisCache) Purge(ctx context.Context) (int64, error) {
	n, err := c.kv.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return n, fmt.Errorf("purging report cache: %w", err)
	}
	c.logger.Info("report cache purged", "deleted", n)
	return n, nil
}

const defaultComputeTimeout = 30 * time.Second

// CachedBuilder computes each report at most once at a time: concurrent
// requests for the same key share one computation, and finished reports
// are served from the cache.
type CachedBuilder struct {
	cache          Cache
	group          singleflight.Group
	computeTimeout time.Duration
	logger         *slog.Logger
	hits           atomic.Int64
	misses         atomic.Int64
}

type BuilderOption func(*CachedBuilder)

// WithComputeTimeout bounds a shared computation. It is independent of the
// deadlines of the callers waiting on it.
func WithComputeTimeout(d time.Duration) BuilderOption {
	return func(b *CachedBuilder) {
		if d > 0 {
			b.computeTimeout = d
		}
	}
}

func NewCachedBuilder(cache Cache, opts ...BuilderOption) *CachedBuilder {
	b := &CachedBuilder{
		cache:          cache,
		computeTimeout: defaultComputeTimeout,
		logger:         slog.Default().With("component", "report-builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetOrCompute returns the cached report for key or runs compute and caches
// its result. cached reports whether compute was skipped. Cache failures are
// logged and treated as misses.
//
// The computation keeps the values of ctx but not its cancellation, so a
// caller that gives up returns ErrTimeout without failing the others
// sharing the same computation.
func (b *CachedBuilder) GetOrCompute(
	ctx context.Context,
	key string,
	compute func(ctx context.Context) (*Report, error),
) (r *Report, cached bool, err error) {
	if r, ok := b.lookup(ctx, key); ok {
		return r, true, nil
	}
	ch := b.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.computeTimeout)
		defer cancel()
		// another flight may have filled the cache since the first lookup
		if r, err := b.cache.Get(fctx, key); err == nil {
			return r, nil
		}
		r, err := compute(fctx)
		if err != nil {
			return nil, err
		}
		if err := b.cache.Set(fctx, key, r); err != nil {
			b.logger.Warn("report cache write failed", "key", key, "error", err)
		}
		return r, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		if res.Shared {
			b.logger.Debug("report computation shared", "key", key)
		}
		return res.Val.(*Report), false, nil
	case <-ctx.Done():
		b.logger.Warn("caller stopped waiting for report", "key", key, "error", ctx.Err())
		return nil, false, apperrors.New(apperrors.ErrTimeout, http.StatusGatewayTimeout, "analysis deadline exceeded")
	}
}

func (b *CachedBuilder) lookup(ctx context.Context, key string) (*Report, bool) {
	r, err := b.cache.Get(ctx, key)
	switch {
	case err == nil:
		b.hits.Add(1)
		return r, true
	case !errors.Is(err, ErrCacheMiss):
		b.logger.Warn("report cache read failed", "key", key, "error", err)
	}
	b.misses.Add(1)
	return nil, false
}

func (b *CachedBuilder) Stats() (hits, misses int64) {
	return b.hits.Load(), b.misses.Load()
}
