package store

import (
	"context"
	"fmt"

	"github.com/nicot/triplestore/layer"
	"github.com/nicot/triplestore/storage"
)

// StoreLayer wraps a materialized Layer with a back-reference to the Store
// it came from, so callers can open a child builder or walk to the parent
// without separately threading a Store handle around. Every Layer query
// method is available directly via embedding.
type StoreLayer struct {
	*layer.Layer
	store *Store
}

// OpenWrite creates a new builder rooted at this layer.
func (l *StoreLayer) OpenWrite(ctx context.Context) (*StoreLayerBuilder, error) {
	return l.store.openWriteFrom(ctx, l.Layer)
}

// Parent materializes this layer's parent. ok is false for a base layer. A
// non-nil parent name that fails to resolve is a store invariant violation
// and surfaces as ErrNotFound.
func (l *StoreLayer) Parent(ctx context.Context) (*StoreLayer, bool, error) {
	name, ok := l.Layer.ParentName()
	if !ok {
		return nil, false, nil
	}
	parent, ok, err := l.store.GetLayerFromID(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("%w: dangling parent %s", storage.ErrNotFound, name)
	}
	return parent, true, nil
}

// Squash collapses this layer's full ancestor chain into an equivalent base
// layer: same effective triples, nil parent. See squashLayer for the
// streaming implementation.
func (l *StoreLayer) Squash(ctx context.Context) (*StoreLayer, error) {
	return squashLayer(ctx, l.store, l.Layer)
}
