package docstore

import (
	"context"
	"time"
)

// timeoutStore bounds every store call with a deadline. A slow backend fails
// the request instead of holding it open.
type timeoutStore struct {
	inner   Store
	timeout time.Duration
}

// WithTimeout wraps a store so each Get/Put runs under the given deadline.
// A non-positive timeout returns the store unchanged.
func WithTimeout(inner Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return inner
	}
	return &timeoutStore{inner: inner, timeout: timeout}
}

func (s *timeoutStore) Get(ctx context.Context, tenantKey, kind string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Get(ctx, tenantKey, kind)
}

func (s *timeoutStore) Put(ctx context.Context, doc *Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Put(ctx, doc)
}

func (s *timeoutStore) Close() error {
	return s.inner.Close()
}
