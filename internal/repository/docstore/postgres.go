package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// schema backs all collections with a single JSONB table. The store is
// schemaless by contract, so no per-collection DDL exists.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection  TEXT        NOT NULL,
	id          TEXT        NOT NULL,
	data        JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_data_idx ON documents USING GIN (data);
`

// PostgresStore implements Store on top of a single JSONB documents table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to Postgres and ensures the documents table exists.
func Open(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := NewPostgresStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the documents table if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure documents schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks connectivity to the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type docRow struct {
	ID        string          `db:"id"`
	Data      json.RawMessage `db:"data"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r *docRow) document() (Document, error) {
	doc := Document{}
	if err := json.Unmarshal(r.Data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", r.ID, err)
	}
	doc[FieldID] = r.ID
	doc[FieldCreatedAt] = r.CreatedAt
	doc[FieldUpdatedAt] = r.UpdatedAt
	return doc, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	query := `
		SELECT id, data, created_at, updated_at FROM documents
		WHERE collection = $1 AND id = $2
	`

	var row docRow
	if err := s.db.GetContext(ctx, &row, query, collection, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return row.document()
}

func (s *PostgresStore) Find(ctx context.Context, collection, field string, value interface{}) (Document, error) {
	query := `
		SELECT id, data, created_at, updated_at FROM documents
		WHERE collection = $1 AND data->>$2 = $3
		LIMIT 1
	`

	var row docRow
	if err := s.db.GetContext(ctx, &row, query, collection, field, textValue(value)); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return row.document()
}

func (s *PostgresStore) Query(ctx context.Context, collection string, preds ...Predicate) ([]Document, error) {
	query := `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1`
	args := []interface{}{collection}
	for _, p := range preds {
		query += fmt.Sprintf(" AND data->>$%d = $%d", len(args)+1, len(args)+2)
		args = append(args, p.Field, textValue(p.Value))
	}
	query += " ORDER BY created_at"

	var rows []docRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	id := data.ID()
	if id == "" {
		id = uuid.New().String()
	}

	payload, err := marshalData(data)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, collection, id, payload); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, patch Document) error {
	set := Document{}
	var remove []string
	for key, value := range patch {
		if key == FieldID || key == FieldCreatedAt || key == FieldUpdatedAt {
			continue
		}
		if _, del := value.(deleteField); del {
			remove = append(remove, key)
			continue
		}
		set[key] = value
	}

	payload, err := marshalData(set)
	if err != nil {
		return err
	}
	if remove == nil {
		remove = []string{}
	}

	query := `
		UPDATE documents
		SET data = (data || $3::jsonb) - $4::text[], updated_at = now()
		WHERE collection = $1 AND id = $2
	`
	result, err := s.db.ExecContext(ctx, query, collection, id, payload, pq.Array(remove))
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	result, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalData(data Document) ([]byte, error) {
	clean := make(Document, len(data))
	for k, v := range data {
		if k == FieldID || k == FieldCreatedAt || k == FieldUpdatedAt {
			continue
		}
		clean[k] = v
	}
	payload, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return payload, nil
}

// textValue renders a predicate value the way jsonb's ->> operator does.
func textValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
