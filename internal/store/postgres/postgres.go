// internal/store/postgres/postgres.go

// Package postgres implements the document store on a single documents
// table: path is the primary key, parent indexes sibling lookups and
// fields is a JSONB bag holding the node's attributes.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"angpao-ledger/internal/store"
	"angpao-ledger/internal/util"
)

// Store implements store.Store for PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// New creates a Postgres-backed document store.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type row struct {
	Path   string          `db:"path"`
	Parent string          `db:"parent"`
	DocID  string          `db:"doc_id"`
	Fields json.RawMessage `db:"fields"`
}

// Create inserts a new document with a generated id.
func (s *Store) Create(ctx context.Context, collection store.Path, fields map[string]any) (string, error) {
	if collection.IsDoc() {
		return "", fmt.Errorf("%w: %s is not a collection path", util.ErrInvalidInput, collection)
	}
	id := uuid.NewString()
	doc := collection.Doc(id)
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("create %s: encode fields: %w", doc, err)
	}
	query := `INSERT INTO documents (path, parent, doc_id, fields) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, doc.String(), collection.String(), id, payload); err != nil {
		return "", storeErr("create", doc, err)
	}
	return id, nil
}

// Put upserts the document at a known path, merging fields into any
// existing document.
func (s *Store) Put(ctx context.Context, doc store.Path, fields map[string]any) error {
	if !doc.IsDoc() {
		return fmt.Errorf("%w: %s is not a document path", util.ErrInvalidInput, doc)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("put %s: encode fields: %w", doc, err)
	}
	query := `INSERT INTO documents (path, parent, doc_id, fields)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (path) DO UPDATE SET fields = documents.fields || EXCLUDED.fields`
	parent := doc[:len(doc)-1]
	if _, err := s.db.ExecContext(ctx, query, doc.String(), store.Path(parent).String(), doc.ID(), payload); err != nil {
		return storeErr("put", doc, err)
	}
	return nil
}

// Get retrieves a single document.
func (s *Store) Get(ctx context.Context, doc store.Path) (*store.Document, error) {
	var r row
	query := `SELECT path, parent, doc_id, fields FROM documents WHERE path = $1`
	if err := s.db.GetContext(ctx, &r, query, doc.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("get %s: %w", doc, util.ErrNotFound)
		}
		return nil, storeErr("get", doc, err)
	}
	return r.decode(doc)
}

// List returns a collection's documents. Rows come back in insertion
// order; the requested field ordering is applied in memory, the same way
// the memory backend does.
func (s *Store) List(ctx context.Context, collection store.Path, order ...store.Order) ([]store.Document, error) {
	var rows []row
	query := `SELECT path, parent, doc_id, fields FROM documents WHERE parent = $1 ORDER BY created_at, path`
	if err := s.db.SelectContext(ctx, &rows, query, collection.String()); err != nil {
		return nil, storeErr("list", collection, err)
	}
	docs := make([]store.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := r.decode(collection.Doc(r.DocID))
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if len(order) > 0 {
		store.SortDocuments(docs, order[0])
	}
	return docs, nil
}

// Update merges fields into an existing document via a JSONB merge.
func (s *Store) Update(ctx context.Context, doc store.Path, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("update %s: encode fields: %w", doc, err)
	}
	query := `UPDATE documents SET fields = fields || $2 WHERE path = $1`
	result, err := s.db.ExecContext(ctx, query, doc.String(), payload)
	if err != nil {
		return storeErr("update", doc, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storeErr("update", doc, err)
	}
	if affected == 0 {
		return fmt.Errorf("update %s: %w", doc, util.ErrNotFound)
	}
	return nil
}

// Delete removes a single document.
func (s *Store) Delete(ctx context.Context, doc store.Path) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = $1`, doc.String())
	if err != nil {
		return storeErr("delete", doc, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storeErr("delete", doc, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete %s: %w", doc, util.ErrNotFound)
	}
	return nil
}

func (r row) decode(path store.Path) (*store.Document, error) {
	fields := make(map[string]any)
	if len(r.Fields) > 0 {
		if err := json.Unmarshal(r.Fields, &fields); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return &store.Document{ID: r.DocID, Path: path, Fields: fields}, nil
}

func storeErr(op string, path store.Path, err error) error {
	return fmt.Errorf("%s %s: %w: %v", op, path, util.ErrStoreUnavailable, err)
}
