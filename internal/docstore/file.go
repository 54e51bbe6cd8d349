package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps each document as <root>/<tenant>/<kind>.json. It is meant
// for single-process deployments and local development; revisions are
// tracked in memory under a process-wide lock, seeded from disk on first
// access.
type FileStore struct {
	root string

	mu        sync.Mutex
	revisions map[string]int64
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store root is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StoreError{Op: "init", Kind: "", Err: err}
	}
	return &FileStore{root: dir, revisions: make(map[string]int64)}, nil
}

func (s *FileStore) path(tenantKey, kind string) (string, error) {
	// Kinds may carry a ':' separator (payment-event markers); keep file
	// names flat.
	name := strings.ReplaceAll(kind, ":", "_")
	if err := validSegment(tenantKey); err != nil {
		return "", fmt.Errorf("tenant key %q: %w", tenantKey, err)
	}
	if err := validSegment(name); err != nil {
		return "", fmt.Errorf("document kind %q: %w", kind, err)
	}
	return filepath.Join(s.root, tenantKey, name+".json"), nil
}

// validSegment rejects values that would name a path outside the store root.
func validSegment(seg string) error {
	switch {
	case seg == "" || seg == "." || seg == "..":
		return fmt.Errorf("not a valid path segment")
	case strings.ContainsAny(seg, `/\`):
		return fmt.Errorf("contains a path separator")
	}
	return nil
}

func (s *FileStore) key(tenantKey, kind string) string {
	return tenantKey + "/" + kind
}

// Get retrieves one document from disk.
func (s *FileStore) Get(_ context.Context, tenantKey, kind string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(tenantKey, kind)
	if err != nil {
		return nil, &StoreError{Op: "get", Kind: kind, Err: err}
	}
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "get", Kind: kind, Err: err}
	}

	key := s.key(tenantKey, kind)
	if s.revisions[key] == 0 {
		// Document written by a previous process run.
		s.revisions[key] = 1
	}
	return &Document{
		TenantKey: tenantKey,
		Kind:      kind,
		Revision:  s.revisions[key],
		Body:      body,
	}, nil
}

// Put performs the conditional upsert described on the Store interface.
func (s *FileStore) Put(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(doc.TenantKey, doc.Kind)
	path, err := s.path(doc.TenantKey, doc.Kind)
	if err != nil {
		return &StoreError{Op: "put", Kind: doc.Kind, Err: err}
	}

	current := s.revisions[key]
	if current == 0 {
		if _, err := os.Stat(path); err == nil {
			current = 1
			s.revisions[key] = 1
		}
	}
	if doc.Revision != current {
		return ErrConflict
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &StoreError{Op: "put", Kind: doc.Kind, Err: err}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc.Body, 0o644); err != nil {
		return &StoreError{Op: "put", Kind: doc.Kind, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &StoreError{Op: "put", Kind: doc.Kind, Err: err}
	}

	s.revisions[key] = current + 1
	doc.Revision = current + 1
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
