package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicot/triplestore/layer"
)

func collectTriples(t *testing.T, l *layer.Layer) map[layer.StringTriple]struct{} {
	t.Helper()
	out := make(map[layer.StringTriple]struct{})
	for _, st := range collectStringTriples(l) {
		out[st] = struct{}{}
	}
	return out
}

// TestSquash exercises a squash scenario: squashing a two-layer chain yields a
// parentless layer with the same effective triples.
func TestSquash(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()

	b1, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b1.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	l1, err := b1.Commit(ctx)
	require.NoError(t, err)

	b2, err := l1.OpenWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, b2.AddStringTriple(layer.StringTriple{Subject: "dog", Predicate: "says", Object: "woof"}))
	l2, err := b2.Commit(ctx)
	require.NoError(t, err)

	n, err := l2.Squash(ctx)
	require.NoError(t, err)

	_, hasParent := n.Layer.Parent()
	require.False(t, hasParent)
	_, hasParentName := n.Layer.ParentName()
	require.False(t, hasParentName)
	require.Equal(t, collectTriples(t, l2.Layer), collectTriples(t, n.Layer))
}

// TestApplyDeltaRebase exercises a rebase scenario: rebasing an independently
// built delta onto a different parent folds in its additions and removals.
func TestApplyDeltaRebase(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()

	b1, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b1.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	l1, err := b1.Commit(ctx)
	require.NoError(t, err)

	b2, err := l1.OpenWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, b2.AddStringTriple(layer.StringTriple{Subject: "dog", Predicate: "says", Object: "woof"}))
	l2, err := b2.Commit(ctx)
	require.NoError(t, err)

	d1, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, d1.AddStringTriple(layer.StringTriple{Subject: "dog", Predicate: "says", Object: "woof"}))
	require.NoError(t, d1.AddStringTriple(layer.StringTriple{Subject: "cat", Predicate: "says", Object: "meow"}))
	dl1, err := d1.Commit(ctx)
	require.NoError(t, err)

	d2, err := dl1.OpenWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, d2.AddStringTriple(layer.StringTriple{Subject: "crow", Predicate: "says", Object: "caw"}))
	require.NoError(t, d2.RemoveStringTriple(layer.StringTriple{Subject: "cat", Predicate: "says", Object: "meow"}))
	dl2, err := d2.Commit(ctx)
	require.NoError(t, err)

	rebase, err := l2.OpenWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, rebase.ApplyDelta(ctx, dl2))
	r, err := rebase.Commit(ctx)
	require.NoError(t, err)

	require.True(t, r.TripleExists(mustTriple(t, r.Layer, "cow", "says", "moo")))
	require.True(t, r.TripleExists(mustTriple(t, r.Layer, "dog", "says", "woof")))
	require.True(t, r.TripleExists(mustTriple(t, r.Layer, "crow", "says", "caw")))

	// "cat says meow" was never present in l2's chain, so rebasing its
	// removal is a silent no-op: the triple has no dictionary entry at all.
	for _, st := range collectStringTriples(r.Layer) {
		require.NotEqual(t, "cat", st.Subject)
	}
}

// TestApplyDiffConvergence checks that after ApplyDiff, committing
// the builder yields exactly other's effective triple set.
func TestApplyDiffConvergence(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()

	b1, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, b1.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	require.NoError(t, b1.AddStringTriple(layer.StringTriple{Subject: "pig", Predicate: "says", Object: "oink"}))
	l1, err := b1.Commit(ctx)
	require.NoError(t, err)

	o1, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.NoError(t, o1.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	require.NoError(t, o1.AddStringTriple(layer.StringTriple{Subject: "duck", Predicate: "says", Object: "quack"}))
	other, err := o1.Commit(ctx)
	require.NoError(t, err)

	diffBuilder, err := l1.OpenWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, diffBuilder.ApplyDiff(ctx, other))
	merged, err := diffBuilder.Commit(ctx)
	require.NoError(t, err)

	require.Equal(t, collectTriples(t, other.Layer), collectTriples(t, merged.Layer))
}

// TestCommittedFlag exercises a committed-flag scenario.
func TestCommittedFlag(t *testing.T) {
	ctx := context.Background()
	s := OpenMemoryStore()

	b, err := s.CreateBaseLayer(ctx)
	require.NoError(t, err)
	require.False(t, b.Committed())

	require.NoError(t, b.AddStringTriple(layer.StringTriple{Subject: "cow", Predicate: "says", Object: "moo"}))
	require.False(t, b.Committed())

	require.NoError(t, b.CommitNoLoad(ctx))
	require.True(t, b.Committed())

	err = b.AddStringTriple(layer.StringTriple{Subject: "pig", Predicate: "says", Object: "oink"})
	require.ErrorIs(t, err, layer.ErrAlreadyCommitted)
}
