package layer

import "errors"

var (
	// ErrAlreadyCommitted is returned by every mutating LayerBuilder method,
	// and by Commit/CommitNoLoad, once the builder has already committed.
	ErrAlreadyCommitted = errors.New("layer: builder has already been committed")

	// ErrUnknownID is returned by AddIDTriple/RemoveIDTriple when a
	// component id is not defined anywhere in the ancestor chain or in the
	// builder's own pending local dictionary.
	ErrUnknownID = errors.New("layer: id not defined in ancestor chain or pending dictionary")
)
