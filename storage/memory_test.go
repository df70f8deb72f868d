package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicot/triplestore/layer"
)

func TestMemoryLayerStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLayerStore()

	b, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b.AddStringTriple(layer.StringTriple{Subject: "s", Predicate: "p", Object: "o", ObjectType: layer.NodeObject}))

	l, err := s.CommitBuilder(ctx, b)
	require.NoError(t, err)

	got, ok, err := s.GetLayer(ctx, l.Name())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, l.Name(), got.Name())
}

func TestMemoryLayerStoreChildUnknownParent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLayerStore()
	_, err := s.CreateChildLayer(ctx, [20]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLayerStoreAncestry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLayerStore()

	b1, _ := s.CreateBaseLayer(ctx)
	l1, err := s.CommitBuilder(ctx, b1)
	require.NoError(t, err)

	b2, err := s.CreateChildLayer(ctx, l1.Name())
	require.NoError(t, err)
	l2, err := s.CommitBuilder(ctx, b2)
	require.NoError(t, err)

	ok, err := s.LayerIsAncestorOf(ctx, l1.Name(), l2.Name())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.LayerIsAncestorOf(ctx, l2.Name(), l1.Name())
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.LayerIsAncestorOf(ctx, l1.Name(), l1.Name())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryLabelStoreCAS(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLabelStore()

	l, err := s.CreateLabel(ctx, "main")
	require.NoError(t, err)

	_, err = s.CreateLabel(ctx, "main")
	require.ErrorIs(t, err, ErrAlreadyExists)

	var target [20]byte
	target[0] = 7
	updated, ok, err := s.SetLabel(ctx, l, &target)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), updated.Version)

	// stale CAS token loses the race.
	_, ok, err = s.SetLabel(ctx, l, &target)
	require.NoError(t, err)
	require.False(t, ok)
}
