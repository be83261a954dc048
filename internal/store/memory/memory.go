// internal/store/memory/memory.go

// Package memory provides a mutex-guarded in-memory document store. It
// backs tests and the "memory" backend for running without Postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"angpao-ledger/internal/store"
	"angpao-ledger/internal/util"
)

type record struct {
	doc store.Document
	seq int
}

// Store holds the document tree in a single map keyed by path.
type Store struct {
	mu   sync.Mutex
	docs map[string]*record
	next int
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{docs: make(map[string]*record)}
}

// Create persists a new document under the collection path with a
// generated id.
func (s *Store) Create(ctx context.Context, collection store.Path, fields map[string]any) (string, error) {
	if collection.IsDoc() {
		return "", fmt.Errorf("%w: %s is not a collection path", util.ErrInvalidInput, collection)
	}
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	path := collection.Doc(id)
	s.docs[path.String()] = &record{
		doc: store.Document{ID: id, Path: path, Fields: copyFields(fields)},
		seq: s.nextSeq(),
	}
	return id, nil
}

// Put creates or merges the document at a known path.
func (s *Store) Put(ctx context.Context, doc store.Path, fields map[string]any) error {
	if !doc.IsDoc() {
		return fmt.Errorf("%w: %s is not a document path", util.ErrInvalidInput, doc)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.docs[doc.String()]; ok {
		for k, v := range fields {
			rec.doc.Fields[k] = v
		}
		return nil
	}
	s.docs[doc.String()] = &record{
		doc: store.Document{ID: doc.ID(), Path: doc, Fields: copyFields(fields)},
		seq: s.nextSeq(),
	}
	return nil
}

// Get retrieves a single document.
func (s *Store) Get(ctx context.Context, doc store.Path) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[doc.String()]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", doc, util.ErrNotFound)
	}
	out := rec.doc
	out.Fields = copyFields(rec.doc.Fields)
	return &out, nil
}

// List returns a collection's documents, in insertion order unless an
// ordering is requested.
func (s *Store) List(ctx context.Context, collection store.Path, order ...store.Order) ([]store.Document, error) {
	s.mu.Lock()
	recs := make([]*record, 0)
	for _, rec := range s.docs {
		if isChildOf(rec.doc.Path, collection) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	docs := make([]store.Document, len(recs))
	for i, rec := range recs {
		docs[i] = rec.doc
		docs[i].Fields = copyFields(rec.doc.Fields)
	}
	s.mu.Unlock()
	if len(order) > 0 {
		store.SortDocuments(docs, order[0])
	}
	return docs, nil
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, doc store.Path, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[doc.String()]
	if !ok {
		return fmt.Errorf("update %s: %w", doc, util.ErrNotFound)
	}
	for k, v := range fields {
		rec.doc.Fields[k] = v
	}
	return nil
}

// Delete removes a single document.
func (s *Store) Delete(ctx context.Context, doc store.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.String()]; !ok {
		return fmt.Errorf("delete %s: %w", doc, util.ErrNotFound)
	}
	delete(s.docs, doc.String())
	return nil
}

// Len reports the number of stored documents. Test helper.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *Store) nextSeq() int {
	s.next++
	return s.next
}

func isChildOf(doc, collection store.Path) bool {
	if len(doc) != len(collection)+1 {
		return false
	}
	for i := range collection {
		if doc[i] != collection[i] {
			return false
		}
	}
	return true
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
