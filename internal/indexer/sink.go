package indexer

import (
	"context"
	"fmt"
	"path/filepath"
)

// FileSink adapts an Indexer to file change notifications. Changed files are
// re-imported and removed files drop every document imported from them.
type FileSink struct {
	Indexer    *Indexer
	Extensions []string
}

// FileChanged re-imports path.
func (s *FileSink) FileChanged(ctx context.Context, path string) error {
	_, err := s.Indexer.IndexFile(ctx, path, s.Extensions)
	return err
}

// FileRemoved deletes the documents imported from path.
func (s *FileSink) FileRemoved(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	_, err = s.Indexer.DeleteBySource(ctx, absPath)
	return err
}
