package store

import (
	"context"
	"fmt"

	"github.com/nicot/triplestore/config"
	"github.com/nicot/triplestore/id160"
	"github.com/nicot/triplestore/layer"
	"github.com/nicot/triplestore/storage"
)

// Store is the handle users hold: it binds one LabelStore and one cached
// LayerStore and mints NamedGraph, StoreLayer, and StoreLayerBuilder handles
// over them.
type Store struct {
	labels storage.LabelStore
	layers storage.LayerStore
	cfg    config.Config
}

// OpenMemoryStore returns a Store backed entirely by in-process maps; state
// does not survive process exit.
func OpenMemoryStore() *Store {
	cfg := config.Config{}.WithDefaults()
	return &Store{
		labels: storage.NewMemoryLabelStore(),
		layers: storage.NewCache(storage.NewMemoryLayerStore(), cfg.CacheEntries),
		cfg:    cfg,
	}
}

// OpenDirectoryStore opens (creating if necessary) a Store rooted at path on
// the filesystem.
func OpenDirectoryStore(path string, cfg config.Config) (*Store, error) {
	cfg = cfg.WithDefaults()
	ls, err := storage.NewDirectoryLayerStore(path, cfg.CleanCacheBytes)
	if err != nil {
		return nil, fmt.Errorf("open directory store: %w", err)
	}
	labelStore, err := storage.NewDirectoryLabelStore(path)
	if err != nil {
		return nil, fmt.Errorf("open directory store: %w", err)
	}
	return &Store{
		labels: labelStore,
		layers: storage.NewCache(ls, cfg.CacheEntries),
		cfg:    cfg,
	}, nil
}

// Create allocates a fresh named graph labeled name. Fails ErrAlreadyExists
// if the label is already taken.
func (s *Store) Create(ctx context.Context, name string) (*NamedGraph, error) {
	if _, err := s.labels.CreateLabel(ctx, name); err != nil {
		return nil, err
	}
	return &NamedGraph{store: s, name: name}, nil
}

// Open returns a handle to an existing named graph, or ok=false if name is
// unknown.
func (s *Store) Open(ctx context.Context, name string) (*NamedGraph, bool, error) {
	_, ok, err := s.labels.GetLabel(ctx, name)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &NamedGraph{store: s, name: name}, true, nil
}

// CreateBaseLayer allocates a fresh, parentless builder.
func (s *Store) CreateBaseLayer(ctx context.Context) (*StoreLayerBuilder, error) {
	b, err := s.layers.CreateBaseLayer(ctx)
	if err != nil {
		return nil, err
	}
	return &StoreLayerBuilder{store: s, LayerBuilder: b}, nil
}

// GetLayerFromID materializes the layer named id, or ok=false if unknown.
func (s *Store) GetLayerFromID(ctx context.Context, id id160.ID) (*StoreLayer, bool, error) {
	l, ok, err := s.layers.GetLayer(ctx, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &StoreLayer{store: s, Layer: l}, true, nil
}

// ExportLayers produces a self-contained pack covering exactly the given ids.
func (s *Store) ExportLayers(ctx context.Context, ids []id160.ID) ([]byte, error) {
	return s.layers.ExportLayers(ctx, ids)
}

// ImportLayers inserts the layers named by ids, whose serialized forms are
// carried by pack.
func (s *Store) ImportLayers(ctx context.Context, pack []byte, ids []id160.ID) error {
	return s.layers.ImportLayers(ctx, pack, ids)
}

func (s *Store) openWriteFrom(ctx context.Context, parent *layer.Layer) (*StoreLayerBuilder, error) {
	b, err := s.layers.CreateChildLayer(ctx, parent.Name())
	if err != nil {
		return nil, err
	}
	return &StoreLayerBuilder{store: s, LayerBuilder: b}, nil
}
