// Package storage implements the LayerStore and LabelStore backends (memory
// and directory), the Cache decorator, and the export/import pack codec.
package storage

import "errors"

var (
	// ErrNotFound is returned when a label, layer, or parent that must
	// exist is missing — a dangling reference is an invariant violation,
	// not ordinary absence.
	ErrNotFound = errors.New("storage: not found")

	// ErrAlreadyExists is returned by CreateLabel on a name collision.
	ErrAlreadyExists = errors.New("storage: already exists")

	// ErrInvalidData covers a pack referencing an unknown name, a pack
	// import colliding with different bytes for an existing name, and
	// other malformed-input conditions.
	ErrInvalidData = errors.New("storage: invalid data")
)
