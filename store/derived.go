package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nicot/triplestore/internal/xlog"
	"github.com/nicot/triplestore/internal/xmetrics"
	"github.com/nicot/triplestore/layer"
)

// resolveStringTriple turns one of l's own id triples back into the
// human-readable form, walking l's dictionary chain. ok is false only if t
// refers to an id the chain does not define, which would itself be a bug
// upstream (ids handed out by a Layer always resolve within that Layer).
func resolveStringTriple(l *layer.Layer, t layer.IdTriple) (layer.StringTriple, bool) {
	s, ok := l.IDSubject(t.Subject)
	if !ok {
		return layer.StringTriple{}, false
	}
	p, ok := l.IDPredicate(t.Predicate)
	if !ok {
		return layer.StringTriple{}, false
	}
	o, objType, ok := l.IDObject(t.Object.ID)
	if !ok {
		return layer.StringTriple{}, false
	}
	return layer.StringTriple{Subject: s, Predicate: p, Object: o, ObjectType: objType}, true
}

// collectStringTriples resolves l's whole effective triple set to strings,
// dropping (and counting) any triple whose dictionary entry cannot be
// resolved.
func collectStringTriples(l *layer.Layer) []layer.StringTriple {
	ids := l.Triples().Collect()
	out := make([]layer.StringTriple, 0, len(ids))
	for _, t := range ids {
		st, ok := resolveStringTriple(l, t)
		if !ok {
			xmetrics.DroppedTriples.Inc()
			xlog.Warn("could not resolve triple to dictionary strings", "subject", t.Subject, "predicate", t.Predicate)
			continue
		}
		out = append(out, st)
	}
	return out
}

// squashLayer collapses l's whole ancestor chain into a freshly committed
// base layer with the same effective triples, streaming l's triples through
// a bounded errgroup fan-out the way triedb/pathdb/lookup.go fans its
// addLayer/removeLayer index updates out across diff entries.
func squashLayer(ctx context.Context, s *Store, l *layer.Layer) (*StoreLayer, error) {
	b, err := s.CreateBaseLayer(ctx)
	if err != nil {
		return nil, err
	}

	ids := l.Triples().Collect()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BuilderConcurrency)
	for _, t := range ids {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			st, ok := resolveStringTriple(l, t)
			if !ok {
				xmetrics.DroppedTriples.Inc()
				xlog.Warn("squash: could not resolve triple", "subject", t.Subject, "predicate", t.Predicate)
				return nil
			}
			if err := b.AddStringTriple(st); err != nil {
				xmetrics.DroppedTriples.Inc()
				xlog.Warn("squash: add failed", "triple", st.String(), "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b.Commit(ctx)
}

// ApplyDelta rebases delta's own additions and removals onto whatever
// parent chain b already rests on: the two streams run concurrently since
// they touch disjoint triple sets and the builder serializes its own
// staging internally. Per-triple failures (e.g. delta referring to an id b's
// chain has since dropped) are logged and counted, not fatal.
func (b *StoreLayerBuilder) ApplyDelta(ctx context.Context, delta *StoreLayer) error {
	additions := delta.TripleAdditions().Collect()
	removals := delta.TripleRemovals().Collect()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, t := range additions {
			if err := gctx.Err(); err != nil {
				return err
			}
			st, ok := resolveStringTriple(delta.Layer, t)
			if !ok {
				xmetrics.DroppedTriples.Inc()
				xlog.Warn("apply_delta: could not resolve addition", "subject", t.Subject)
				continue
			}
			if err := b.AddStringTriple(st); err != nil {
				xmetrics.DroppedTriples.Inc()
				xlog.Warn("apply_delta: add failed", "triple", st.String(), "err", err)
			}
		}
		return nil
	})
	g.Go(func() error {
		for _, t := range removals {
			if err := gctx.Err(); err != nil {
				return err
			}
			st, ok := resolveStringTriple(delta.Layer, t)
			if !ok {
				xmetrics.DroppedTriples.Inc()
				xlog.Warn("apply_delta: could not resolve removal", "subject", t.Subject)
				continue
			}
			if err := b.RemoveStringTriple(st); err != nil {
				xmetrics.DroppedTriples.Inc()
				xlog.Warn("apply_delta: remove failed", "triple", st.String(), "err", err)
			}
		}
		return nil
	})
	return g.Wait()
}

// ApplyDiff expresses other's effective triple set as additions/removals
// against b's own parent, so that b.Commit().Triples() == other.Triples()
// once staged. Comparison is by resolved string triple, not raw id, since
// b's parent and other generally belong to unrelated dictionary lineages
// whose ids carry no shared meaning.
func (b *StoreLayerBuilder) ApplyDiff(ctx context.Context, other *StoreLayer) error {
	var parentTriples []layer.StringTriple
	if parent, ok := b.LayerBuilder.Parent(); ok {
		parentTriples = collectStringTriples(parent)
	}
	otherTriples := collectStringTriples(other.Layer)

	otherSet := make(map[layer.StringTriple]struct{}, len(otherTriples))
	for _, t := range otherTriples {
		otherSet[t] = struct{}{}
	}
	parentSet := make(map[layer.StringTriple]struct{}, len(parentTriples))
	for _, t := range parentTriples {
		parentSet[t] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, t := range parentTriples {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, ok := otherSet[t]; ok {
				continue
			}
			if err := b.RemoveStringTriple(t); err != nil {
				xmetrics.DroppedTriples.Inc()
				xlog.Warn("apply_diff: remove failed", "triple", t.String(), "err", err)
			}
		}
		return nil
	})
	g.Go(func() error {
		for _, t := range otherTriples {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, ok := parentSet[t]; ok {
				continue
			}
			if err := b.AddStringTriple(t); err != nil {
				xmetrics.DroppedTriples.Inc()
				xlog.Warn("apply_diff: add failed", "triple", t.String(), "err", err)
			}
		}
		return nil
	})
	return g.Wait()
}
