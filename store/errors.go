// Package store is the user-facing façade binding a LabelStore and a cached
// LayerStore into NamedGraph/StoreLayer/StoreLayerBuilder handles, plus the
// derived operations (squash, rebase, diff) built on top of them.
package store

import "github.com/nicot/triplestore/storage"

// Re-exported so callers never need to import the storage package directly.
var (
	ErrNotFound      = storage.ErrNotFound
	ErrAlreadyExists = storage.ErrAlreadyExists
	ErrInvalidData   = storage.ErrInvalidData
)
