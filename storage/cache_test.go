package storage

import (
	"container/list"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicot/triplestore/id160"
	"github.com/nicot/triplestore/layer"
)

func TestCacheReturnsSameIdentity(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryLayerStore()
	c := NewCache(inner, 8)

	b, _ := c.CreateBaseLayer(ctx)
	require.NoError(t, b.AddStringTriple(layer.StringTriple{Subject: "s", Predicate: "p", Object: "o"}))
	l, err := c.CommitBuilder(ctx, b)
	require.NoError(t, err)

	a, ok, err := c.GetLayer(ctx, l.Name())
	require.NoError(t, err)
	require.True(t, ok)

	d, ok, err := c.GetLayer(ctx, l.Name())
	require.NoError(t, err)
	require.True(t, ok)

	require.Same(t, a, d)
}

func TestCacheEvictionBounded(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryLayerStore()
	c := NewCache(inner, 2)

	var names [3]id160.ID
	for i := range names {
		b, _ := c.CreateBaseLayer(ctx)
		l, err := c.CommitBuilder(ctx, b)
		require.NoError(t, err)
		names[i] = l.Name()
	}

	c.mu.Lock()
	size := c.order.Len()
	c.mu.Unlock()
	require.LessOrEqual(t, size, 2)

	// Evicted entries are still retrievable through the inner store.
	_, ok, err := c.GetLayer(ctx, names[0])
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCacheCoalescesConcurrentMaterialization(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryLayerStore()
	c := NewCache(inner, 8)

	b, _ := c.CreateBaseLayer(ctx)
	l, err := c.CommitBuilder(ctx, b)
	require.NoError(t, err)

	// Force every GetLayer call below to re-materialize through the
	// singleflight path rather than short-circuiting on the LRU hit.
	c.mu.Lock()
	c.items = make(map[id160.ID]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	var wg sync.WaitGroup
	results := make([]*layer.Layer, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, ok, err := c.GetLayer(ctx, l.Name())
			require.NoError(t, err)
			require.True(t, ok)
			results[i] = got
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.Same(t, results[0], r)
	}
}
