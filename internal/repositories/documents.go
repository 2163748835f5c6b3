package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// Watchlist document collection and field names.
const (
	CollectionWatchlists = "watchlists"

	FieldItems      = "items"
	FieldOwner      = "owner"
	FieldImportedAt = "importedAt"
	FieldUpdatedAt  = "updatedAt"
)

// Document is a JSON object keyed by top-level field. Values stay encoded until decoded by the caller.
type Document map[string]json.RawMessage

// Decode unmarshals field into v. It reports false when the field is absent.
func (d Document) Decode(field string, v any) (bool, error) {
	raw, ok := d[field]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("%w: field %s: %w", shared.ErrMalformedResponse, field, err)
	}
	return true, nil
}

// Put encodes v into field.
func (d Document) Put(field string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode field %s: %w", field, err)
	}
	d[field] = raw
	return nil
}

// Items decodes the watchlist entry array. A document without items is an empty list.
func (d Document) Items() ([]models.Entry, error) {
	var items []models.Entry
	if _, err := d.Decode(FieldItems, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Owner is the identity stored alongside a watchlist.
type Owner struct {
	UID   string `json:"uid"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Store is the document API the watchlist protocol needs.
type Store interface {
	// Get returns the document for key or an error wrapping [shared.ErrNotFound].
	Get(ctx context.Context, key string) (Document, error)
	// Set upserts fields under key. With merge the fields are shallow-merged over
	// the stored document; without it the document is replaced.
	Set(ctx context.Context, key string, fields Document, merge bool) error
}

// DocumentStore implements [Store] over the documents table for one collection.
type DocumentStore struct {
	db         *sql.DB
	collection string
	now        func() time.Time
}

// NewDocumentStore creates a [DocumentStore] for collection.
func NewDocumentStore(db *sql.DB, collection string) *DocumentStore {
	return &DocumentStore{db: db, collection: collection, now: time.Now}
}

// Get retrieves the document stored under key
func (s *DocumentStore) Get(ctx context.Context, key string) (Document, error) {
	return s.get(ctx, s.db, key)
}

func (s *DocumentStore) get(ctx context.Context, q queryRower, key string) (Document, error) {
	var data []byte
	err := q.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND key = ?`,
		s.collection, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrNotFound, s.collection, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: stored document %s/%s: %w", shared.ErrMalformedResponse, s.collection, key, err)
	}
	return doc, nil
}

// Set writes fields under key. The read for a merge and the write share one
// transaction; there is no versioning, so the last writer wins.
func (s *DocumentStore) Set(ctx context.Context, key string, fields Document, merge bool) error {
	if key == "" {
		return fmt.Errorf("%w: document key is required", shared.ErrInvalidArgument)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	doc := Document{}
	if merge {
		existing, err := s.get(ctx, tx, key)
		switch {
		case err == nil:
			doc = existing
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
	}
	maps.Copy(doc, fields)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	now := s.now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (collection, key, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, s.collection, key, string(data), now, now)
	if err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

// Delete removes the document under key.
func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND key = ?`, s.collection, key)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return affectedOne(result, fmt.Errorf("%w: %s/%s", shared.ErrNotFound, s.collection, key))
}

// Keys lists the document keys in the collection.
func (s *DocumentStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM documents WHERE collection = ? ORDER BY key`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan document key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}
