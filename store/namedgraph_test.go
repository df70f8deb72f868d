package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicot/triplestore/layer"
)

// TestCreateAndReadHead exercises a create-and-read-head scenario: a fresh label has no head;
// committing and setting it makes the committed triple visible.
func TestCreateAndReadHead(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()

	g, err := s.Create(ctx, "foodb")
	require.NoError(t, err)

	_, ok, err := g.Head(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	b, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	l1, err := b.Commit(ctx)
	require.NoError(t, err)

	ok, err = g.SetHead(ctx, l1)
	require.NoError(t, err)
	require.True(t, ok)

	head, ok, err := g.Head(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, head.TripleExists(mustTriple(t, head.Layer, "cow", "says", "moo")))
}

// TestExtendHead checks that setting head to a descendant layer advances it,
// and both ancestor and new triples are visible.
func TestExtendHead(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()
	g, err := s.Create(ctx, "foodb")
	require.NoError(t, err)

	b1, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b1.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	l1, err := b1.Commit(ctx)
	require.NoError(t, err)
	ok, err := g.SetHead(ctx, l1)
	require.NoError(t, err)
	require.True(t, ok)

	b2, err := l1.OpenWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, b2.AddStringTriple(layer.StringTriple{Subject: "pig", Predicate: "says", Object: "oink"}))
	l2, err := b2.Commit(ctx)
	require.NoError(t, err)

	ok, err = g.SetHead(ctx, l2)
	require.NoError(t, err)
	require.True(t, ok)

	head, ok, err := g.Head(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, l2.Name(), head.Name())
	require.True(t, head.TripleExists(mustTriple(t, head.Layer, "cow", "says", "moo")))
	require.True(t, head.TripleExists(mustTriple(t, head.Layer, "pig", "says", "oink")))
}

// TestForceResetHead checks that SetHead refuses a non-descendant, while
// ForceSetHead always wins and fully replaces the visible triples.
func TestForceResetHead(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()
	g, err := s.Create(ctx, "foodb")
	require.NoError(t, err)

	b1, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b1.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	l1, err := b1.Commit(ctx)
	require.NoError(t, err)
	ok, err := g.SetHead(ctx, l1)
	require.NoError(t, err)
	require.True(t, ok)

	b2, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b2.AddStringTriple(layer.StringTriple{Subject: "duck", Predicate: "says", Object: "quack"}))
	l2, err := b2.Commit(ctx)
	require.NoError(t, err)

	ok, err = g.SetHead(ctx, l2)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = g.ForceSetHead(ctx, l2)
	require.NoError(t, err)
	require.True(t, ok)

	head, ok, err := g.Head(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, head.TripleExists(mustTriple(t, head.Layer, "duck", "says", "quack")))
	require.False(t, head.TripleExists(mustTriple(t, head.Layer, "cow", "says", "moo")))
}

// TestConcurrentSetHeadOnlyOneWinsPerVersion checks that under a
// race, at most one of several competing SetHead calls against the same
// observed version succeeds.
func TestConcurrentSetHeadOnlyOneWinsPerVersion(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()
	g, err := s.Create(ctx, "race")
	require.NoError(t, err)

	var layers []*StoreLayer
	for i := 0; i < 8; i++ {
		b, err := s.CreateBaseLayer(ctx)
		require.NoError(t, err)
		l, err := b.Commit(ctx)
		require.NoError(t, err)
		layers = append(layers, l)
	}

	var wg sync.WaitGroup
	results := make([]bool, len(layers))
	for i, l := range layers {
		wg.Add(1)
		go func(i int, l *StoreLayer) {
			defer wg.Done()
			ok, err := g.SetHead(ctx, l)
			require.NoError(t, err)
			results[i] = ok
		}(i, l)
	}
	wg.Wait()

	wins := 0
	for _, ok := range results {
		if ok {
			wins++
		}
	}
	require.Equal(t, 1, wins)
}

func mustTriple(t *testing.T, l *layer.Layer, s, p, o string) layer.IdTriple {
	t.Helper()
	sid, ok := l.SubjectID(s)
	require.True(t, ok)
	pid, ok := l.PredicateID(p)
	require.True(t, ok)
	oid, ok := l.ObjectValueID(o)
	if !ok {
		oid, ok = l.ObjectNodeID(o)
		require.True(t, ok)
		return layer.IdTriple{Subject: sid, Predicate: pid, Object: layer.Object{Type: layer.NodeObject, ID: oid}}
	}
	return layer.IdTriple{Subject: sid, Predicate: pid, Object: layer.Object{Type: layer.ValueObject, ID: oid}}
}
