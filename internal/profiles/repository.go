// Package profiles loads and saves the two per-tenant document kinds:
// the singleton company profile and the job profile collection.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/adwriter/internal/docstore"
	"github.com/jonathan/adwriter/internal/schemas"
	"github.com/jonathan/adwriter/internal/types"
)

// DefaultCompanyName is the placeholder used until the tenant edits their
// profile for the first time.
const DefaultCompanyName = "unknown"

// Repository mediates between the domain types and the document store. It is
// the only component that talks to the store for profile documents.
type Repository struct {
	store docstore.Store
	log   *zap.Logger
}

// NewRepository creates a repository backed by the given store.
func NewRepository(store docstore.Store, log *zap.Logger) *Repository {
	return &Repository{store: store, log: log.Named("profiles")}
}

// CompanyProfile returns the tenant's company profile. When none exists it
// returns in-memory defaults without persisting them; the first save creates
// the document.
func (r *Repository) CompanyProfile(ctx context.Context, tenantKey string) (*types.CompanyProfile, error) {
	doc, err := r.store.Get(ctx, tenantKey, docstore.KindCompanyProfile)
	if errors.Is(err, docstore.ErrNotFound) {
		return defaultCompanyProfile(tenantKey), nil
	}
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidateCompanyProfile(doc.Body); err != nil {
		return nil, fmt.Errorf("stored company profile for %s is invalid: %w", tenantKey, err)
	}

	var profile types.CompanyProfile
	if err := json.Unmarshal(doc.Body, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode company profile: %w", err)
	}
	profile.Revision = doc.Revision
	return &profile, nil
}

// JobProfiles returns the tenant's job profile collection. When none exists
// an empty collection is initialized and persisted immediately. This
// asymmetry with CompanyProfile is deliberate: listing pages depend on the
// collection document existing.
func (r *Repository) JobProfiles(ctx context.Context, tenantKey string) (*types.JobProfileCollection, error) {
	doc, err := r.store.Get(ctx, tenantKey, docstore.KindJobProfiles)
	if errors.Is(err, docstore.ErrNotFound) {
		coll := &types.JobProfileCollection{
			ID:        tenantKey + ":" + docstore.KindJobProfiles,
			TenantKey: tenantKey,
			Profiles:  []types.JobProfile{},
		}
		if err := r.SaveJobProfiles(ctx, coll); err != nil {
			if errors.Is(err, docstore.ErrConflict) {
				// Another request initialized the collection first.
				return r.JobProfiles(ctx, tenantKey)
			}
			return nil, err
		}
		r.log.Info("initialized job profile collection", zap.String("tenant", tenantKey))
		return coll, nil
	}
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidateJobProfiles(doc.Body); err != nil {
		return nil, fmt.Errorf("stored job profiles for %s are invalid: %w", tenantKey, err)
	}

	var coll types.JobProfileCollection
	if err := json.Unmarshal(doc.Body, &coll); err != nil {
		return nil, fmt.Errorf("failed to decode job profiles: %w", err)
	}
	coll.Revision = doc.Revision
	return &coll, nil
}

// SaveCompanyProfile persists the profile, propagating store errors
// unchanged. The profile's revision is advanced on success.
func (r *Repository) SaveCompanyProfile(ctx context.Context, profile *types.CompanyProfile) error {
	if profile.ID == "" {
		profile.ID = profile.TenantKey + ":" + docstore.KindCompanyProfile
	}
	body, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode company profile: %w", err)
	}
	doc := &docstore.Document{
		TenantKey: profile.TenantKey,
		Kind:      docstore.KindCompanyProfile,
		Revision:  profile.Revision,
		Body:      body,
	}
	if err := r.store.Put(ctx, doc); err != nil {
		return err
	}
	profile.Revision = doc.Revision
	return nil
}

// SaveJobProfiles persists the collection, propagating store errors
// unchanged. The collection's revision is advanced on success.
func (r *Repository) SaveJobProfiles(ctx context.Context, coll *types.JobProfileCollection) error {
	if coll.Profiles == nil {
		coll.Profiles = []types.JobProfile{}
	}
	body, err := json.Marshal(coll)
	if err != nil {
		return fmt.Errorf("failed to encode job profiles: %w", err)
	}
	doc := &docstore.Document{
		TenantKey: coll.TenantKey,
		Kind:      docstore.KindJobProfiles,
		Revision:  coll.Revision,
		Body:      body,
	}
	if err := r.store.Put(ctx, doc); err != nil {
		return err
	}
	coll.Revision = doc.Revision
	return nil
}

func defaultCompanyProfile(tenantKey string) *types.CompanyProfile {
	return &types.CompanyProfile{
		ID:        tenantKey + ":" + docstore.KindCompanyProfile,
		TenantKey: tenantKey,
		Name:      DefaultCompanyName,
	}
}
