package docstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]*Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

func memKey(tenantKey, kind string) string {
	return tenantKey + "/" + kind
}

// Get retrieves a copy of the stored document.
func (s *MemoryStore) Get(_ context.Context, tenantKey, kind string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.docs[memKey(tenantKey, kind)]
	if !ok {
		return nil, ErrNotFound
	}
	body := make([]byte, len(stored.Body))
	copy(body, stored.Body)
	return &Document{
		TenantKey: stored.TenantKey,
		Kind:      stored.Kind,
		Revision:  stored.Revision,
		Body:      body,
	}, nil
}

// Put performs the conditional upsert described on the Store interface.
func (s *MemoryStore) Put(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey(doc.TenantKey, doc.Kind)
	stored, exists := s.docs[key]

	if doc.Revision == 0 {
		if exists {
			return ErrConflict
		}
	} else if !exists || stored.Revision != doc.Revision {
		return ErrConflict
	}

	body := make([]byte, len(doc.Body))
	copy(body, doc.Body)
	s.docs[key] = &Document{
		TenantKey: doc.TenantKey,
		Kind:      doc.Kind,
		Revision:  doc.Revision + 1,
		Body:      body,
	}
	doc.Revision++
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
