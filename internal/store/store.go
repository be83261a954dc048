// internal/store/store.go
package store

import (
	"context"
)

// Document is a single node in the path-addressed document tree.
// Fields holds the node's persisted attributes; ID duplicates the last
// path segment for convenience.
type Document struct {
	ID     string
	Path   Path
	Fields map[string]any
}

// Order describes a single-field ordering for List.
type Order struct {
	Field string
	Desc  bool
}

// Store is the path-addressed document store the ledger persists into.
// Each call is atomic at the granularity of a single document; there are
// no multi-document transactions. Implementations report failures with
// util.ErrNotFound, util.ErrStoreUnavailable or util.ErrPermissionDenied
// in the error chain.
type Store interface {
	// Create persists a new document under the given collection path and
	// returns its generated id.
	Create(ctx context.Context, collection Path, fields map[string]any) (string, error)
	// Put creates or replaces the document at a known path, merging fields
	// into any existing document.
	Put(ctx context.Context, doc Path, fields map[string]any) error
	// Get retrieves the document at the given path.
	Get(ctx context.Context, doc Path) (*Document, error)
	// List returns the documents of a collection, ordered by the given
	// field if one is requested. Ordering is stable for equal keys.
	List(ctx context.Context, collection Path, order ...Order) ([]Document, error)
	// Update merges fields into the document at the given path.
	Update(ctx context.Context, doc Path, fields map[string]any) error
	// Delete removes the single document at the given path. Descendant
	// documents are not touched; recursive removal is the caller's job.
	Delete(ctx context.Context, doc Path) error
}
