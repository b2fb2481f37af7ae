package report

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/errors"
)

type fakeKV struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  time.Duration
	err  error
	gets int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	f.ttl = ttl
	return nil
}

func (f *fakeKV) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for key := range f.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(f.data, key)
			n++
		}
	}
	return n, nil
}

func TestRedisCachePurge(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.data["unrelated"] = []byte("keep")
	rc := NewRedisCache(kv, time.Minute)
	require.NoError(t, rc.Set(ctx, "k1", &Report{ID: "k1"}))
	require.NoError(t, rc.Set(ctx, "k2", &Report{ID: "k2"}))

	n, err := rc.Purge(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	_, err = rc.Get(ctx, "k1")
	require.ErrorIs(t, err, ErrCacheMiss)
	require.Contains(t, kv.data, "unrelated")
}

func TestMemoryCacheStandalone(t *testing.T) {
	ctx := context.Background()
	mc, err := NewMemoryCache(2, nil)
	require.NoError(t, err)

	_, err = mc.Get(ctx, "a")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "a", &Report{ID: "a"}))
	require.NoError(t, mc.Set(ctx, "b", &Report{ID: "b"}))
	require.NoError(t, mc.Set(ctx, "c", &Report{ID: "c"}))
	require.Equal(t, 2, mc.Len())

	_, err = mc.Get(ctx, "a")
	require.ErrorIs(t, err, ErrCacheMiss, "least recently used entry is evicted")
	r, err := mc.Get(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, "c", r.ID)
}

func TestMemoryCacheRejectsBadSize(t *testing.T) {
	_, err := NewMemoryCache(0, nil)
	require.Error(t, err)
}

func TestTieredCache(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	redisCache := NewRedisCache(kv, time.Minute)
	mc, err := NewMemoryCache(8, redisCache)
	require.NoError(t, err)

	require.NoError(t, mc.Set(ctx, "k1", &Report{ID: "k1", Words: 7}))
	require.Contains(t, kv.data, "report:k1")
	require.Equal(t, time.Minute, kv.ttl)

	// a second process sees the entry through Redis and keeps it locally
	other, err := NewMemoryCache(8, redisCache)
	require.NoError(t, err)
	r, err := other.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, 7, r.Words)
	gets := kv.gets
	_, err = other.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, gets, kv.gets)

	_, err = other.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheErrorsAndCorruption(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	c := NewRedisCache(kv, time.Minute)

	kv.data["report:bad"] = []byte("{not json")
	_, err := c.Get(ctx, "bad")
	require.ErrorIs(t, err, ErrCacheMiss)

	kv.err = errors.New("connection refused")
	_, err = c.Get(ctx, "x")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCacheMiss)
	require.Error(t, c.Set(ctx, "x", &Report{}))
}

func TestRedisCacheMissesDoNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	c := NewRedisCache(kv, time.Minute)

	for range 20 {
		_, err := c.Get(ctx, "absent")
		require.ErrorIs(t, err, ErrCacheMiss)
	}
	require.NoError(t, c.Set(ctx, "present", &Report{ID: "present"}))
}

func TestCachedBuilderCachesResult(t *testing.T) {
	ctx := context.Background()
	mc, err := NewMemoryCache(8, nil)
	require.NoError(t, err)
	b := NewCachedBuilder(mc)

	calls := 0
	compute := func(context.Context) (*Report, error) {
		calls++
		return &Report{ID: "k"}, nil
	}

	r, cached, err := b.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, "k", r.ID)

	r2, cached, err := b.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	require.True(t, cached)
	require.Same(t, r, r2)
	require.Equal(t, 1, calls)

	hits, misses := b.Stats()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
}

func TestCachedBuilderDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	mc, err := NewMemoryCache(8, nil)
	require.NoError(t, err)
	b := NewCachedBuilder(mc)

	boom := errors.New("boom")
	_, _, err = b.GetOrCompute(ctx, "k", func(context.Context) (*Report, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.Zero(t, mc.Len())
}

func TestCachedBuilderSurvivesCancelledCaller(t *testing.T) {
	mc, err := NewMemoryCache(8, nil)
	require.NoError(t, err)
	b := NewCachedBuilder(mc)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (*Report, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &Report{ID: "k"}, nil
	}

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := b.GetOrCompute(first, "k", compute)
		firstErr <- err
	}()
	<-started

	type result struct {
		r   *Report
		err error
	}
	second := make(chan result, 1)
	go func() {
		r, _, err := b.GetOrCompute(context.Background(), "k", compute)
		second <- result{r, err}
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, apperrors.ErrTimeout)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	require.Equal(t, "k", got.r.ID)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, 1, mc.Len())
}

func TestCachedBuilderComputeTimeout(t *testing.T) {
	mc, err := NewMemoryCache(8, nil)
	require.NoError(t, err)
	b := NewCachedBuilder(mc, WithComputeTimeout(10*time.Millisecond))

	_, _, err = b.GetOrCompute(context.Background(), "k", func(ctx context.Context) (*Report, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, mc.Len())
}

func TestCachedBuilderCoalescesConcurrentRequests(t *testing.T) {
	mc, err := NewMemoryCache(8, nil)
	require.NoError(t, err)
	b := NewCachedBuilder(mc)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (*Report, error) {
		calls.Add(1)
		<-release
		return &Report{ID: "shared"}, nil
	}

	var wg sync.WaitGroup
	results := make([]*Report, 10)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _, err := b.GetOrCompute(context.Background(), "shared", compute)
			if err == nil {
				results[i] = r
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		require.NotNil(t, r)
		require.Equal(t, "shared", r.ID)
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (*Report, error) {
	return nil, errors.New("cache down")
}

func (brokenCache) Set(context.Context, string, *Report) error {
	return errors.New("cache down")
}

func TestCachedBuilderSurvivesBrokenCache(t *testing.T) {
	b := NewCachedBuilder(brokenCache{})
	r, cached, err := b.GetOrCompute(context.Background(), "k", func(context.Context) (*Report, error) {
		return &Report{ID: "k"}, nil
	})
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, "k", r.ID)
}
