// Package indexer writes documents into storage, the payload store and the keyword index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/omomi/internal/config"
	"github.com/hyperjump/omomi/internal/extract"
	"github.com/hyperjump/omomi/internal/fileid"
	"github.com/hyperjump/omomi/internal/keyword"
	"github.com/hyperjump/omomi/internal/models"
	"github.com/hyperjump/omomi/internal/payload"
	"github.com/hyperjump/omomi/internal/schema"
	"github.com/hyperjump/omomi/internal/storage"
	"go.uber.org/zap"
)

// ErrNoFields is returned when a document has no fields to index.
var ErrNoFields = errors.New("document has no fields")

// Indexer indexes documents into storage and the keyword index.
type Indexer struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	schemas      *schema.Registry
	delimiter    string
	function     payload.Function
	extractor    *extract.Extractor
	logger       *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file indexed, document deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil; when nil, a default extractor is used for IndexFile.
// Payload weights are checked against cfg.Function; an unknown name falls
// back to the default function.
func NewIndexer(
	storage storage.Storage,
	keywordIndex keyword.KeywordIndex,
	schemas *schema.Registry,
	cfg *config.PayloadConfig,
	extractor *extract.Extractor,
	opts ...IndexerOption,
) *Indexer {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	fn, err := payload.FunctionByName(cfg.Function)
	if err != nil {
		fn = payload.AverageOfLog
	}
	idx := &Indexer{
		storage:      storage,
		keywordIndex: keywordIndex,
		schemas:      schemas,
		delimiter:    cfg.Delimiter,
		function:     fn,
		extractor:    extractor,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexDocument stores a document, its payloads and its keyword fields,
// replacing any document with the same ID. An empty ID is filled with a new UUID.
// Payload-bearing fields are parsed as "term|weight" tokens.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) error {
	if len(input.Fields) == 0 {
		return ErrNoFields
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	s := idx.schemas.Load()
	tokens := make(map[string][]payload.Token)
	keywordFields := make(map[string]string, len(input.Fields))
	for field, value := range input.Fields {
		f, _ := s.Field(field)
		if !f.PayloadBearing() {
			keywordFields[field] = Preprocess(f.Type, value)
			continue
		}
		toks, err := payload.ParseDelimited(value, idx.delimiter)
		if err == nil {
			err = payload.CheckWeights(toks, idx.function)
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		tokens[field] = toks
		keywordFields[field] = payload.Terms(toks)
	}

	doc := &models.Document{
		ID:     input.ID,
		Fields: input.Fields,
		Source: input.Source,
	}
	if err := idx.storage.PutDocument(ctx, doc, tokens); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	if err := idx.keywordIndex.Index(ctx, doc.ID, keywordFields); err != nil {
		// The stored rows would otherwise outlive a document the index never saw.
		if delErr := idx.storage.DeleteDocument(ctx, doc.ID); delErr != nil {
			return fmt.Errorf("failed to index keywords: %w (rollback failed: %v)", err, delErr)
		}
		return fmt.Errorf("failed to index keywords: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer document indexed", zap.String("id", doc.ID), zap.Int("payload_fields", len(tokens)))
	}
	return nil
}

// IndexFile loads the records of a file and indexes them with the file's
// absolute path as their source. Records from an earlier import of the same
// file are removed first. Records without an ID get one derived from the path
// and the record index, so re-importing updates the same documents.
// If allowedExts is non-empty, the file's extension must be in the list.
// Returns the number of documents indexed.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (int, error) {
	if idx.logger != nil {
		idx.logger.Debug("indexer indexing file", zap.String("path", path))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return 0, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}
	inputs, err := idx.extractor.Load(absPath)
	if err != nil {
		return 0, fmt.Errorf("load documents: %w", err)
	}
	if _, err := idx.DeleteBySource(ctx, absPath); err != nil {
		return 0, err
	}
	n := 0
	for i, input := range inputs {
		if len(input.Fields) == 0 {
			continue
		}
		if input.ID == "" {
			input.ID = fileid.RecordID(absPath, i)
		}
		input.Source = absPath
		if err := idx.IndexDocument(ctx, input); err != nil {
			return n, fmt.Errorf("record %d: %w", i, err)
		}
		n++
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer file indexed", zap.String("path", absPath), zap.Int("documents", n))
	}
	return n, nil
}

// IndexDirectory walks dir recursively and indexes each regular file whose extension
// is in allowedExts (if non-nil and non-empty; otherwise all supported formats). Returns
// the number of documents indexed and the first error encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	if len(allowedExts) == 0 {
		allowedExts = extract.Extensions
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !extensionAllowed(ext, allowedExts) {
			return nil
		}
		// Resolve symlinks so we only index regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil {
			return nil
		}
		if !finfo.Mode().IsRegular() {
			return nil
		}
		count, indexErr := idx.IndexFile(ctx, path, allowedExts)
		n += count
		return indexErr
	})
	return n, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// DeleteDocument removes a document from the keyword index and storage.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	if idx.logger != nil {
		idx.logger.Debug("indexer deleting document", zap.String("id", id))
	}
	if err := idx.keywordIndex.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteBySource removes every document imported from source and returns how
// many were removed.
func (idx *Indexer) DeleteBySource(ctx context.Context, source string) (int, error) {
	ids, err := idx.storage.DocumentIDsBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents for %s: %w", source, err)
	}
	for i, id := range ids {
		if err := idx.DeleteDocument(ctx, id); err != nil {
			return i, err
		}
	}
	if idx.logger != nil && len(ids) > 0 {
		idx.logger.Debug("indexer source removed", zap.String("source", source), zap.Int("documents", len(ids)))
	}
	return len(ids), nil
}
