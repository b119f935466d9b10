// Package corpusfile persists the article corpus as an ordered,
// human-diffable JSON document.
package corpusfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"feedsync/internal/domain"
)

// Store reads and writes the corpus file. Save is atomic from a reader's
// point of view: the document is written to a temp file in the same
// directory and renamed over the target.
type Store struct {
	path string
}

// New creates a Store for the given path. The parent directory is created
// on first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted corpus, or an empty slice when no file exists
// yet. Read and decode failures come back as *domain.PersistenceError;
// callers degrade to an empty starting corpus.
func (s *Store) Load(_ context.Context) ([]domain.Article, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Article{}, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load", Err: err}
	}

	var articles []domain.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, &domain.PersistenceError{Op: "load", Err: err}
	}

	return articles, nil
}

// Save writes the corpus atomically. On failure no partial file is left
// committed; the previous document remains authoritative.
func (s *Store) Save(_ context.Context, articles []domain.Article) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.PersistenceError{Op: "save", Err: fmt.Errorf("create dir: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, ".articles-*.json")
	if err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}

	if err := tmp.Sync(); err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}

	return nil
}
