package store

import (
	"context"

	"github.com/nicot/triplestore/layer"
)

// StoreLayerBuilder wraps a LayerBuilder with a back-reference to the Store
// it will publish into. Every builder staging method is available directly
// via embedding; Commit and CommitNoLoad replace LayerBuilder.Commit with a
// variant that also persists the result.
type StoreLayerBuilder struct {
	*layer.LayerBuilder
	store *Store
}

// Commit finalizes and publishes the builder through the store's cached
// LayerStore, returning the committed layer; the cache keeps that same value,
// so later lookups of its name return the same Layer.
func (b *StoreLayerBuilder) Commit(ctx context.Context) (*StoreLayer, error) {
	l, err := b.store.layers.CommitBuilder(ctx, b.LayerBuilder)
	if err != nil {
		return nil, err
	}
	return &StoreLayer{store: b.store, Layer: l}, nil
}

// CommitNoLoad finalizes and publishes the builder without materializing a
// StoreLayer for the result, for callers that only need the side effect.
func (b *StoreLayerBuilder) CommitNoLoad(ctx context.Context) error {
	_, err := b.store.layers.CommitBuilder(ctx, b.LayerBuilder)
	return err
}
