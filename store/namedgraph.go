package store

import (
	"context"
	"fmt"

	"github.com/nicot/triplestore/internal/xlog"
	"github.com/nicot/triplestore/internal/xmetrics"
	"github.com/nicot/triplestore/storage"
)

// NamedGraph is the user-level view of a label: it exposes head read and CAS
// advance operations over the layer a label currently points at. A NamedGraph
// holds no lock of its own; every write goes through LabelStore.SetLabel's
// CAS, so concurrent callers - whether sharing one handle or each holding
// their own - race at the store, not in this type.
type NamedGraph struct {
	store *Store
	name  string
}

// Name returns the label name this graph is bound to.
func (g *NamedGraph) Name() string { return g.name }

func (g *NamedGraph) refresh(ctx context.Context) (storage.Label, error) {
	l, ok, err := g.store.labels.GetLabel(ctx, g.name)
	if err != nil {
		return storage.Label{}, err
	}
	if !ok {
		return storage.Label{}, fmt.Errorf("%w: label %s vanished", storage.ErrNotFound, g.name)
	}
	return l, nil
}

// Head materializes the layer the label currently points at. ok is false if
// the label has never been set. A non-nil pointer with a missing layer is a
// store invariant violation and surfaces as ErrNotFound.
func (g *NamedGraph) Head(ctx context.Context) (*StoreLayer, bool, error) {
	cur, err := g.refresh(ctx)
	if err != nil {
		return nil, false, err
	}
	if !cur.HasLayer() {
		return nil, false, nil
	}
	l, ok, err := g.store.GetLayerFromID(ctx, *cur.Layer)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("%w: label %s points at missing layer %s", storage.ErrNotFound, g.name, *cur.Layer)
	}
	return l, true, nil
}

// SetHead fast-forwards the label to target: it succeeds only if the current
// head is nil or an ancestor of target. Returns false (not an error) on CAS
// loss or when target is not a descendant of the current head.
func (g *NamedGraph) SetHead(ctx context.Context, target *StoreLayer) (bool, error) {
	cur, err := g.refresh(ctx)
	if err != nil {
		return false, err
	}
	if cur.HasLayer() {
		isAncestor, err := g.store.layers.LayerIsAncestorOf(ctx, *cur.Layer, target.Name())
		if err != nil {
			return false, err
		}
		if !isAncestor {
			return false, nil
		}
	}
	return g.cas(ctx, cur, target)
}

// ForceSetHead points the label at target, skipping the ancestry check
// SetHead performs. It still goes through the CAS and returns false if the
// label changed between the read and the write. Used for rollbacks.
func (g *NamedGraph) ForceSetHead(ctx context.Context, target *StoreLayer) (bool, error) {
	cur, err := g.refresh(ctx)
	if err != nil {
		return false, err
	}
	return g.cas(ctx, cur, target)
}

// cas performs the actual compare-and-set against the label store, threading
// the exact cur value through rather than re-reading it.
func (g *NamedGraph) cas(ctx context.Context, cur storage.Label, target *StoreLayer) (bool, error) {
	name := target.Name()
	_, ok, err := g.store.labels.SetLabel(ctx, cur, &name)
	if err != nil {
		return false, err
	}
	if ok {
		xmetrics.CASSuccess.Inc()
	} else {
		xmetrics.CASFailure.Inc()
		xlog.Warn("named graph head CAS lost the race", "label", g.name, "have", cur.Version)
	}
	return ok, nil
}
