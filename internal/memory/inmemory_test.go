package memory

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBackend_SetGet(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	require.NoError(t, b.Set(ctx, "k1", "v1", 0))

	value, found, err := b.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", value)

	_, found, err = b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemoryBackend_Expiry(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	require.NoError(t, b.Set(ctx, "k1", "v1", 10*time.Millisecond))

	_, found, err := b.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)

	_, found, err = b.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found, "expired key should read as a miss")
}

func TestInMemoryBackend_Delete(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	require.NoError(t, b.Set(ctx, "k1", "v1", 0))
	require.NoError(t, b.Set(ctx, "k2", "v2", 0))

	removed, err := b.Delete(ctx, "k1", "k2", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, found, _ := b.Get(ctx, "k1")
	assert.False(t, found)
}

func TestInMemoryBackend_Keys(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	require.NoError(t, b.Set(ctx, "attune:stm:kv:agent-1:a", "1", 0))
	require.NoError(t, b.Set(ctx, "attune:stm:kv:agent-1:b", "2", 0))
	require.NoError(t, b.Set(ctx, "attune:stm:kv:agent-2:a", "3", 0))

	keys, err := b.Keys(ctx, "attune:stm:kv:agent-1:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"attune:stm:kv:agent-1:a",
		"attune:stm:kv:agent-1:b",
	}, keys)
}

func TestInMemoryBackend_ConditionalDeleteAndReturn(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	require.NoError(t, b.Set(ctx, "k1", "expected", 0))

	// Matching snapshot: deleted and returned
	value, ok, err := b.ConditionalDeleteAndReturn(ctx, "k1", "expected")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "expected", value)

	_, found, _ := b.Get(ctx, "k1")
	assert.False(t, found)

	// Missing key: no-op
	_, ok, err = b.ConditionalDeleteAndReturn(ctx, "k1", "expected")
	require.NoError(t, err)
	assert.False(t, ok)

	// Concurrently modified value: aborted, entry untouched
	require.NoError(t, b.Set(ctx, "k2", "changed", 0))
	_, ok, err = b.ConditionalDeleteAndReturn(ctx, "k2", "original")
	require.NoError(t, err)
	assert.False(t, ok)

	value, found, _ = b.Get(ctx, "k2")
	assert.True(t, found)
	assert.Equal(t, "changed", value)
}

func TestInMemoryBackend_ListOps(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	length, err := b.ListPush(ctx, "q", "a", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	length, err = b.ListPush(ctx, "q", "b", false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)

	// Head push jumps the line
	length, err = b.ListPush(ctx, "q", "urgent", true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)

	items, err := b.ListRange(ctx, "q", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent", "a", "b"}, items)

	value, found, err := b.ListPop(ctx, "q")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "urgent", value)

	length, err = b.ListLen(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)

	// Draining leaves an empty list
	b.ListPop(ctx, "q")
	b.ListPop(ctx, "q")
	_, found, err = b.ListPop(ctx, "q")
	require.NoError(t, err)
	assert.False(t, found)

	length, err = b.ListLen(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}

func TestInMemoryBackend_ListRangeBounds(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	for _, v := range []string{"a", "b", "c", "d"} {
		_, err := b.ListPush(ctx, "q", v, false)
		require.NoError(t, err)
	}

	items, err := b.ListRange(ctx, "q", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, items)

	// Stop beyond the end is clamped
	items, err = b.ListRange(ctx, "q", 2, 99)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, items)

	// Inverted range is empty
	items, err = b.ListRange(ctx, "q", 3, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInMemoryBackend_SortedSetOps(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	// Insert out of score order
	require.NoError(t, b.SortedAdd(ctx, "tl", 3.0, "three"))
	require.NoError(t, b.SortedAdd(ctx, "tl", 1.0, "one"))
	require.NoError(t, b.SortedAdd(ctx, "tl", 2.0, "two"))

	members, err := b.SortedRangeByScore(ctx, "tl", math.Inf(-1), math.Inf(1), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, members)

	// Inclusive bounds
	members, err = b.SortedRangeByScore(ctx, "tl", 1.0, 2.0, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, members)

	count, err := b.SortedCountByScore(ctx, "tl", 2.0, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestInMemoryBackend_SortedPaginationStable(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	for i := 0; i < 25; i++ {
		require.NoError(t, b.SortedAdd(ctx, "tl", float64(i), fmt.Sprintf("m%02d", i)))
	}

	first, err := b.SortedRangeByScore(ctx, "tl", math.Inf(-1), math.Inf(1), 0, 10)
	require.NoError(t, err)
	second, err := b.SortedRangeByScore(ctx, "tl", math.Inf(-1), math.Inf(1), 10, 10)
	require.NoError(t, err)
	third, err := b.SortedRangeByScore(ctx, "tl", math.Inf(-1), math.Inf(1), 20, 10)
	require.NoError(t, err)

	assert.Len(t, first, 10)
	assert.Len(t, second, 10)
	assert.Len(t, third, 5)

	// Windows are disjoint and reconstruct the full ascending sequence
	all := append(append(append([]string{}, first...), second...), third...)
	for i, member := range all {
		assert.Equal(t, fmt.Sprintf("m%02d", i), member)
	}
}

func TestInMemoryBackend_SortedEqualScoresKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	require.NoError(t, b.SortedAdd(ctx, "tl", 1.0, "first"))
	require.NoError(t, b.SortedAdd(ctx, "tl", 1.0, "second"))
	require.NoError(t, b.SortedAdd(ctx, "tl", 1.0, "third"))

	members, err := b.SortedRangeByScore(ctx, "tl", 1.0, 1.0, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, members)
}

func TestInMemoryBackend_PingAfterClose(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	require.NoError(t, b.Ping(ctx))
	require.NoError(t, b.Close())
	assert.Error(t, b.Ping(ctx))
}

func TestInMemoryBackend_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k-%d-%d", n, j)
				_ = b.Set(ctx, key, "v", 0)
				_, _, _ = b.Get(ctx, key)
				_, _ = b.ListPush(ctx, "shared", key, false)
				_ = b.SortedAdd(ctx, "events", float64(j), key)
			}
		}(i)
	}
	wg.Wait()

	length, err := b.ListLen(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(500), length)

	count, err := b.SortedCountByScore(ctx, "events", math.Inf(-1), math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, int64(500), count)
}
