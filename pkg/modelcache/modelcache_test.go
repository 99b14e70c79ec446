package modelcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldgate/shieldgate/pkg/model"
)

type fakeModel struct {
	name string
}

func (m *fakeModel) Name() string { return m.name }

func newTestCache() *ModelCache {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New([]string{"CPUExecutionProvider"}, logger)
}

func TestModelCache_LoadOnce(t *testing.T) {
	cache := newTestCache()

	var loads int64
	loader := func(_ context.Context) (model.Model, error) {
		atomic.AddInt64(&loads, 1)
		return &fakeModel{name: "m1"}, nil
	}

	first, err := cache.GetModel(context.Background(), "m1", loader)
	require.NoError(t, err)
	second, err := cache.GetModel(context.Background(), "m1", loader)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&loads))
}

func TestModelCache_ConcurrentLoadInvokesLoaderOnce(t *testing.T) {
	cache := newTestCache()

	var loads int64
	loader := func(_ context.Context) (model.Model, error) {
		atomic.AddInt64(&loads, 1)
		time.Sleep(10 * time.Millisecond)
		return &fakeModel{name: "shared"}, nil
	}

	const callers = 32
	results := make([]model.Model, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := cache.GetModel(context.Background(), "shared", loader)
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&loads))
	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestModelCache_LoaderErrorPropagatesAndRetries(t *testing.T) {
	cache := newTestCache()

	boom := errors.New("model file corrupt")
	calls := 0
	loader := func(_ context.Context) (model.Model, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &fakeModel{name: "m"}, nil
	}

	_, err := cache.GetModel(context.Background(), "m", loader)
	assert.ErrorIs(t, err, boom)

	// A failed load caches nothing, the next caller retries.
	m, err := cache.GetModel(context.Background(), "m", loader)
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, 2, calls)
}

func TestModelCache_PreloadModel(t *testing.T) {
	cache := newTestCache()

	ok := cache.PreloadModel(context.Background(), "good", func(_ context.Context) (model.Model, error) {
		return &fakeModel{name: "good"}, nil
	})
	assert.True(t, ok)

	ok = cache.PreloadModel(context.Background(), "bad", func(_ context.Context) (model.Model, error) {
		return nil, errors.New("load failed")
	})
	assert.False(t, ok)
}

func TestModelCache_PerformanceStats(t *testing.T) {
	cache := newTestCache()

	loader := func(_ context.Context) (model.Model, error) {
		return &fakeModel{name: "m1"}, nil
	}
	_, err := cache.GetModel(context.Background(), "m1", loader)
	require.NoError(t, err)
	_, err = cache.GetModel(context.Background(), "m1", loader)
	require.NoError(t, err)

	stats := cache.GetPerformanceStats()
	assert.Contains(t, stats.CachedModels, "m1")
	assert.Equal(t, int64(1), stats.HitCounts["m1"])
	assert.Contains(t, stats.LoadDurations, "m1")
	assert.Equal(t, []string{"CPUExecutionProvider"}, stats.Providers)
}

func TestModelCache_ClearCache(t *testing.T) {
	cache := newTestCache()

	var loads int64
	loader := func(_ context.Context) (model.Model, error) {
		atomic.AddInt64(&loads, 1)
		return &fakeModel{name: "m1"}, nil
	}

	_, err := cache.GetModel(context.Background(), "m1", loader)
	require.NoError(t, err)

	cache.ClearCache()
	stats := cache.GetPerformanceStats()
	assert.Empty(t, stats.CachedModels)
	assert.Empty(t, stats.HitCounts)

	_, err = cache.GetModel(context.Background(), "m1", loader)
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&loads))
}
