package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/omomi/internal/models"
	"github.com/hyperjump/omomi/internal/payload"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		fields TEXT NOT NULL,
		source TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);

	CREATE TABLE IF NOT EXISTS payloads (
		document_id TEXT NOT NULL,
		field TEXT NOT NULL,
		position INTEGER NOT NULL,
		term TEXT NOT NULL,
		payload BLOB,
		PRIMARY KEY (document_id, field, position)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// PutDocument inserts or replaces a document and its payload rows in one transaction.
// CreatedAt is kept from the replaced document when there is one.
func (s *SQLiteStorage) PutDocument(ctx context.Context, doc *models.Document, tokens map[string][]payload.Token) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	createdAt := now
	var existing time.Time
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM documents WHERE id = ?`, doc.ID).Scan(&existing)
	switch {
	case err == nil:
		createdAt = existing
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (id, fields, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		doc.ID, string(fieldsJSON), doc.Source, createdAt, now,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM payloads WHERE document_id = ?`, doc.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO payloads (document_id, field, position, term, payload) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for field, toks := range tokens {
		for _, tok := range toks {
			var raw any
			if tok.Payload != nil {
				raw = tok.Payload
			}
			if _, err := stmt.ExecContext(ctx, doc.ID, field, tok.Position, tok.Term, raw); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	doc.CreatedAt = createdAt
	doc.UpdatedAt = now
	return nil
}

// GetDocument returns a document by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	var fieldsJSON string
	var source sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, fields, source, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &fieldsJSON, &source, &doc.CreatedAt, &doc.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	doc.Source = source.String
	if err := json.Unmarshal([]byte(fieldsJSON), &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}
	return &doc, nil
}

// DeleteDocument removes a document and its payloads. Deleting a missing document is not an error.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM payloads WHERE document_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListDocuments returns documents with offset and limit, newest first.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields, source, created_at, updated_at
		 FROM documents ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		var fieldsJSON string
		var source sql.NullString
		if err := rows.Scan(&doc.ID, &fieldsJSON, &source, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		doc.Source = source.String
		_ = json.Unmarshal([]byte(fieldsJSON), &doc.Fields)
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// DocumentIDsBySource returns the IDs of documents imported from source.
func (s *SQLiteStorage) DocumentIDsBySource(ctx context.Context, source string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents WHERE source = ? ORDER BY id`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Payloads returns the raw payload bytes of one document field by position.
func (s *SQLiteStorage) Payloads(ctx context.Context, docID, field string) (map[int][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, payload FROM payloads WHERE document_id = ? AND field = ?`,
		docID, field,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int][]byte)
	for rows.Next() {
		var pos int
		var raw []byte
		if err := rows.Scan(&pos, &raw); err != nil {
			return nil, err
		}
		out[pos] = raw
	}
	return out, rows.Err()
}

// Tokens returns the stored tokens of one document field ordered by position.
func (s *SQLiteStorage) Tokens(ctx context.Context, docID, field string) ([]payload.Token, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, term, payload FROM payloads WHERE document_id = ? AND field = ? ORDER BY position`,
		docID, field,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payload.Token
	for rows.Next() {
		var tok payload.Token
		if err := rows.Scan(&tok.Position, &tok.Term, &tok.Payload); err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountPayloads returns the number of stored positions that carry a payload.
func (s *SQLiteStorage) CountPayloads(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payloads WHERE payload IS NOT NULL`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
