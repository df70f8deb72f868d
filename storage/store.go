package storage

import (
	"context"

	"github.com/nicot/triplestore/id160"
	"github.com/nicot/triplestore/layer"
)

// LayerStore is the content-addressed repository of layers: creating
// builders, materializing layers by name, ancestry queries, and pack
// export/import
type LayerStore interface {
	// CreateBaseLayer allocates a fresh name and returns an Open builder
	// with no parent.
	CreateBaseLayer(ctx context.Context) (*layer.LayerBuilder, error)

	// CreateChildLayer allocates a fresh name and returns an Open builder
	// rooted at parentName. Fails ErrNotFound if parentName is unknown.
	CreateChildLayer(ctx context.Context, parentName id160.ID) (*layer.LayerBuilder, error)

	// CommitBuilder finalizes b (see layer.LayerBuilder.Commit) and
	// publishes the resulting Layer under b.Name() so later GetLayer
	// calls can find it.
	CommitBuilder(ctx context.Context, b *layer.LayerBuilder) (*layer.Layer, error)

	// GetLayer materializes the layer named name, including its full
	// parent chain.
	GetLayer(ctx context.Context, name id160.ID) (*layer.Layer, bool, error)

	// ParentName looks up a layer's parent without materializing the full
	// layer.
	ParentName(ctx context.Context, name id160.ID) (id160.ID, bool, error)

	// LayerIsAncestorOf reports whether candidate equals anchor or is
	// reachable by following parent pointers from anchor.
	LayerIsAncestorOf(ctx context.Context, candidate, anchor id160.ID) (bool, error)

	// ExportLayers produces a self-contained pack covering exactly the
	// given names.
	ExportLayers(ctx context.Context, names []id160.ID) ([]byte, error)

	// ImportLayers inserts the layers named by names, whose serialized
	// forms are carried by pack.
	ImportLayers(ctx context.Context, pack []byte, names []id160.ID) error
}

// Label is the persisted state of a named graph: a monotonic version and
// an optional layer pointer. Version is also the compare-and-set token.
type Label struct {
	Name    string
	Version uint64
	Layer   *id160.ID
}

// HasLayer reports whether the label currently points at a layer.
func (l Label) HasLayer() bool { return l.Layer != nil }

// LabelStore is the mutable name -> (version, optional layer) mapping
// behind a NamedGraph
type LabelStore interface {
	// CreateLabel creates a fresh label with version 0 and no layer.
	// Fails ErrAlreadyExists if name is taken.
	CreateLabel(ctx context.Context, name string) (Label, error)

	// GetLabel returns the current state of name.
	GetLabel(ctx context.Context, name string) (Label, bool, error)

	// SetLabel performs a compare-and-set: it succeeds only if the
	// persisted version for old.Name equals old.Version, in which case
	// the stored record becomes (name, old.Version+1, newLayer). old must
	// be the exact value most recently observed via GetLabel/SetLabel —
	// never re-read internally — closing the TOCTOU window a naive
	// read-then-write implementation would have.
	SetLabel(ctx context.Context, old Label, newLayer *id160.ID) (Label, bool, error)
}

// AncestorWalk reports whether candidate equals anchor or is reachable by
// repeatedly following ParentName from anchor. It is the shared
// implementation every LayerStore backend's LayerIsAncestorOf delegates to,
// since it only needs the cheap parent-name lookup, not full
// materialization.
func AncestorWalk(ctx context.Context, ls LayerStore, candidate, anchor id160.ID) (bool, error) {
	cur := anchor
	for {
		if cur == candidate {
			return true, nil
		}
		parent, ok, err := ls.ParentName(ctx, cur)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		cur = parent
	}
}
