package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicot/triplestore/config"
	"github.com/nicot/triplestore/id160"
	"github.com/nicot/triplestore/layer"
)

func TestDirectoryStoreHeadProtocol(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := OpenDirectoryStore(dir, config.Config{})
	require.NoError(t, err)

	g, err := s.Create(ctx, "foodb")
	require.NoError(t, err)

	b, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	l, err := b.Commit(ctx)
	require.NoError(t, err)

	ok, err := g.SetHead(ctx, l)
	require.NoError(t, err)
	require.True(t, ok)

	head, ok, err := g.Head(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, l.Name(), head.Name())
}

func TestCreateDuplicateLabelFails(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()
	_, err := s.Create(ctx, "foodb")
	require.NoError(t, err)
	_, err = s.Create(ctx, "foodb")
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestStoreExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := OpenMemoryStore()

	b, err := src.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	l, err := b.Commit(ctx)
	require.NoError(t, err)

	pack, err := src.ExportLayers(ctx, []id160.ID{l.Name()})
	require.NoError(t, err)

	dst := OpenMemoryStore()
	require.NoError(t, dst.ImportLayers(ctx, pack, []id160.ID{l.Name()}))

	got, ok, err := dst.GetLayerFromID(ctx, l.Name())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, collectTriples(t, l.Layer), collectTriples(t, got.Layer))
}

func TestParentWalksToBase(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()

	b1, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	l1, err := b1.Commit(ctx)
	require.NoError(t, err)

	b2, err := l1.OpenWrite(ctx)
	require.NoError(t, err)
	l2, err := b2.Commit(ctx)
	require.NoError(t, err)

	parent, ok, err := l2.Parent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, l1.Name(), parent.Name())

	_, ok, err = parent.Parent(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
