// Package storage persists documents and the raw payload bytes of their
// payload-bearing fields.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/omomi/internal/models"
	"github.com/hyperjump/omomi/internal/payload"
)

// ErrDocumentNotFound is returned when no document has the requested ID.
var ErrDocumentNotFound = errors.New("document not found")

// Storage defines document and payload persistence operations.
type Storage interface {
	// PutDocument stores doc, replacing any document with the same ID, and
	// its payload tokens keyed by field name.
	PutDocument(ctx context.Context, doc *models.Document, tokens map[string][]payload.Token) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	// DocumentIDsBySource returns IDs of documents imported from source.
	DocumentIDsBySource(ctx context.Context, source string) ([]string, error)

	// Payloads returns raw payload bytes by 1-based position for one document
	// field. Positions without a payload map to nil.
	Payloads(ctx context.Context, docID, field string) (map[int][]byte, error)
	// Tokens returns the terms, positions and raw payloads of one document
	// field ordered by position.
	Tokens(ctx context.Context, docID, field string) ([]payload.Token, error)

	CountDocuments(ctx context.Context) (int64, error)
	CountPayloads(ctx context.Context) (int64, error)

	Close() error
}
