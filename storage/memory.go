package storage

import (
	"context"
	"sync"

	"github.com/nicot/triplestore/id160"
	"github.com/nicot/triplestore/layer"
)

// MemoryLayerStore keeps every layer as an in-process Go value. It never
// evicts; all persisted state lives for the lifetime of the process.
type MemoryLayerStore struct {
	mu     sync.RWMutex
	layers map[id160.ID]*layer.Layer
}

// NewMemoryLayerStore returns an empty in-memory LayerStore.
func NewMemoryLayerStore() *MemoryLayerStore {
	return &MemoryLayerStore{layers: make(map[id160.ID]*layer.Layer)}
}

func (s *MemoryLayerStore) CreateBaseLayer(ctx context.Context) (*layer.LayerBuilder, error) {
	return layer.NewBuilder(id160.New(), nil), nil
}

func (s *MemoryLayerStore) CreateChildLayer(ctx context.Context, parentName id160.ID) (*layer.LayerBuilder, error) {
	parent, ok, err := s.GetLayer(ctx, parentName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return layer.NewBuilder(id160.New(), parent), nil
}

func (s *MemoryLayerStore) CommitBuilder(ctx context.Context, b *layer.LayerBuilder) (*layer.Layer, error) {
	l, err := b.Commit()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.layers[l.Name()] = l
	s.mu.Unlock()
	return l, nil
}

func (s *MemoryLayerStore) GetLayer(ctx context.Context, name id160.ID) (*layer.Layer, bool, error) {
	s.mu.RLock()
	l, ok := s.layers[name]
	s.mu.RUnlock()
	return l, ok, nil
}

func (s *MemoryLayerStore) ParentName(ctx context.Context, name id160.ID) (id160.ID, bool, error) {
	s.mu.RLock()
	l, ok := s.layers[name]
	s.mu.RUnlock()
	if !ok {
		return id160.Zero, false, nil
	}
	return l.ParentName()
}

func (s *MemoryLayerStore) LayerIsAncestorOf(ctx context.Context, candidate, anchor id160.ID) (bool, error) {
	return AncestorWalk(ctx, s, candidate, anchor)
}

func (s *MemoryLayerStore) insertLayer(ctx context.Context, l *layer.Layer) error {
	s.mu.Lock()
	s.layers[l.Name()] = l
	s.mu.Unlock()
	return nil
}

func (s *MemoryLayerStore) ExportLayers(ctx context.Context, names []id160.ID) ([]byte, error) {
	return exportLayers(ctx, s, names)
}

func (s *MemoryLayerStore) ImportLayers(ctx context.Context, pack []byte, names []id160.ID) error {
	return importLayers(ctx, s, pack, names)
}

// MemoryLabelStore keeps every label as an in-process Go value guarded by a
// per-store mutex; CAS correctness comes from holding the lock across the
// compare-then-swap, not from any external locking.
type MemoryLabelStore struct {
	mu     sync.Mutex
	labels map[string]Label
}

// NewMemoryLabelStore returns an empty in-memory LabelStore.
func NewMemoryLabelStore() *MemoryLabelStore {
	return &MemoryLabelStore{labels: make(map[string]Label)}
}

func (s *MemoryLabelStore) CreateLabel(ctx context.Context, name string) (Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.labels[name]; ok {
		return Label{}, ErrAlreadyExists
	}
	l := Label{Name: name, Version: 0}
	s.labels[name] = l
	return l, nil
}

func (s *MemoryLabelStore) GetLabel(ctx context.Context, name string) (Label, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.labels[name]
	return l, ok, nil
}

func (s *MemoryLabelStore) SetLabel(ctx context.Context, old Label, newLayer *id160.ID) (Label, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.labels[old.Name]
	if !ok {
		return Label{}, false, ErrNotFound
	}
	if cur.Version != old.Version {
		return cur, false, nil
	}
	next := Label{Name: old.Name, Version: old.Version + 1, Layer: newLayer}
	s.labels[old.Name] = next
	return next, true, nil
}
