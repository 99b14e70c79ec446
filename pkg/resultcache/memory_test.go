package resultcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldgate/shieldgate/pkg/types"
)

func cachedResult(text string) *types.SecurityResult {
	return types.NewSecurityResult(nil, 1.0, text, 4.2, nil, nil)
}

func TestMemoryClient_SetAndGet(t *testing.T) {
	client := NewMemoryClient(time.Minute)
	ctx := context.Background()

	stored := cachedResult("hello world")
	require.NoError(t, client.Set(ctx, "hello world", types.DirectionInput, stored, 0))

	got, err := client.Get(ctx, "hello world", types.DirectionInput)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
}

func TestMemoryClient_Miss(t *testing.T) {
	client := NewMemoryClient(time.Minute)

	_, err := client.Get(context.Background(), "never stored", types.DirectionInput)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClient_DirectionsDoNotCollide(t *testing.T) {
	client := NewMemoryClient(time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "same text", types.DirectionInput, cachedResult("same text"), 0))

	_, err := client.Get(ctx, "same text", types.DirectionOutput)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClient_TTLExpiry(t *testing.T) {
	client := NewMemoryClient(time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "short lived", types.DirectionInput, cachedResult("short lived"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := client.Get(ctx, "short lived", types.DirectionInput)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClient_ClearAll(t *testing.T) {
	client := NewMemoryClient(time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "a", types.DirectionInput, cachedResult("a"), 0))
	require.NoError(t, client.Set(ctx, "b", types.DirectionOutput, cachedResult("b"), 0))
	require.NoError(t, client.ClearAll(ctx))

	_, err := client.Get(ctx, "a", types.DirectionInput)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClient_Statistics(t *testing.T) {
	client := NewMemoryClient(time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "a", types.DirectionInput, cachedResult("a"), 0))
	_, _ = client.Get(ctx, "a", types.DirectionInput)
	_, _ = client.Get(ctx, "missing", types.DirectionInput)

	stats := client.Statistics(ctx)
	assert.Equal(t, "memory", stats["backend"])
	assert.Equal(t, 1, stats["entries"])
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}
