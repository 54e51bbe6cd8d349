// Package docstore provides get/put access to JSON documents partitioned by
// tenant. Every document is identified by the pair (tenant key, kind) and
// carries a revision token used for conditional writes.
package docstore

import (
	"context"
	"encoding/json"
)

// Well-known document kinds. Additional kinds (payment-event markers) are
// constructed with EventKind.
const (
	KindCompanyProfile = "company_profile"
	KindJobProfiles    = "job_profiles"
)

// EventKind returns the marker-document kind for a completed payment event.
func EventKind(eventID string) string {
	return "payment_event:" + eventID
}

// Document is one stored JSON document.
type Document struct {
	TenantKey string
	Kind      string
	// Revision is the token of the copy this document was loaded from.
	// Zero means the document does not exist yet; Put then creates it.
	Revision int64
	Body     json.RawMessage
}

// Store is the single mutator of durable state.
//
// Put is a conditional upsert: with Revision zero it creates the document and
// fails with ErrConflict if one already exists; with a non-zero Revision it
// replaces the stored copy only if the revision still matches, failing with
// ErrConflict otherwise. On success the document's Revision is advanced to
// the newly stored value. The store performs no retries; conflict handling is
// a caller concern.
type Store interface {
	Get(ctx context.Context, tenantKey, kind string) (*Document, error)
	Put(ctx context.Context, doc *Document) error
	Close() error
}
