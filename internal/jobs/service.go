// Package jobs implements the job profile lifecycle: creation with dense id
// allocation, change-tracked edits, soft delete and recovery, cloning and
// filtered listing. Every operation is a single load-modify-save cycle
// against the tenant's collection document, retried on revision conflicts.
package jobs

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/jonathan/adwriter/internal/docstore"
	"github.com/jonathan/adwriter/internal/profiles"
	"github.com/jonathan/adwriter/internal/types"
)

// Service performs lifecycle operations on a tenant's job profiles.
type Service struct {
	repo *profiles.Repository
	log  *zap.Logger
	now  func() time.Time
}

// NewService creates a lifecycle service.
func NewService(repo *profiles.Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log.Named("jobs"), now: time.Now}
}

func (s *Service) retryPolicy(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond
	bo.MaxElapsedTime = 2 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(bo, 5), ctx)
}

// mutate runs one load-modify-save cycle, retrying the whole cycle when the
// conditional write loses to a concurrent writer.
func (s *Service) mutate(ctx context.Context, tenantKey string, fn func(coll *types.JobProfileCollection) error) error {
	op := func() error {
		coll, err := s.repo.JobProfiles(ctx, tenantKey)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := fn(coll); err != nil {
			return backoff.Permanent(err)
		}
		if err := s.repo.SaveJobProfiles(ctx, coll); err != nil {
			if errors.Is(err, docstore.ErrConflict) {
				s.log.Debug("job profiles write conflict, retrying",
					zap.String("tenant", tenantKey))
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}
	return backoff.Retry(op, s.retryPolicy(ctx))
}

// nextJobID returns the smallest positive integer no live profile holds.
// Soft-deleted profiles release their ids, so a deleted id is recycled by
// the next creation.
func nextJobID(coll *types.JobProfileCollection) int {
	used := make(map[int]bool, len(coll.Profiles))
	for i := range coll.Profiles {
		if !coll.Profiles[i].Deleted {
			used[coll.Profiles[i].JobID] = true
		}
	}
	id := 1
	for used[id] {
		id++
	}
	return id
}

// Create allocates the smallest free job id, applies the supplied fields and
// appends the new profile to the collection.
func (s *Service) Create(ctx context.Context, tenantKey string, upd ProfileUpdate) (*types.JobProfile, error) {
	var created types.JobProfile
	err := s.mutate(ctx, tenantKey, func(coll *types.JobProfileCollection) error {
		profile := types.JobProfile{
			JobID:       nextJobID(coll),
			Status:      types.JobStatusDraft,
			GeneratedAd: "",
			Deleted:     false,
			UpdatedAt:   s.now().UTC(),
		}
		upd.apply(&profile)
		coll.Profiles = append(coll.Profiles, profile)
		created = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("created job profile",
		zap.String("tenant", tenantKey), zap.Int("job_id", created.JobID))
	return &created, nil
}

// Edit applies the supplied fields to an existing profile. The update stamp
// is refreshed exactly when at least one supplied field differs from the
// stored value; a no-op edit leaves the stamp untouched. That rule is what
// staleness detection is built on.
func (s *Service) Edit(ctx context.Context, tenantKey string, jobID int, upd ProfileUpdate) (*types.JobProfile, error) {
	var edited types.JobProfile
	err := s.mutate(ctx, tenantKey, func(coll *types.JobProfileCollection) error {
		profile := coll.Find(jobID)
		if profile == nil {
			return &NotFoundError{JobID: jobID}
		}
		if upd.changes(profile) {
			upd.apply(profile)
			profile.UpdatedAt = s.now().UTC()
		}
		edited = *profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &edited, nil
}

// SoftDelete hides a profile from default listings without removing it.
// The job id and timestamps are unchanged.
func (s *Service) SoftDelete(ctx context.Context, tenantKey string, jobID int) error {
	return s.setDeleted(ctx, tenantKey, jobID, true)
}

// Recover makes a soft-deleted profile visible again.
func (s *Service) Recover(ctx context.Context, tenantKey string, jobID int) error {
	return s.setDeleted(ctx, tenantKey, jobID, false)
}

func (s *Service) setDeleted(ctx context.Context, tenantKey string, jobID int, deleted bool) error {
	return s.mutate(ctx, tenantKey, func(coll *types.JobProfileCollection) error {
		var target *types.JobProfile
		for i := range coll.Profiles {
			p := &coll.Profiles[i]
			if p.JobID == jobID && p.Deleted != deleted {
				target = p
				break
			}
		}
		if target == nil {
			return &NotFoundError{JobID: jobID}
		}
		if !deleted {
			// The id may have been recycled while this profile was deleted.
			for i := range coll.Profiles {
				p := &coll.Profiles[i]
				if p.JobID == jobID && !p.Deleted {
					return &IDInUseError{JobID: jobID}
				}
			}
		}
		target.Deleted = deleted
		return nil
	})
}

// Clone deep-copies the source profile under a freshly allocated job id.
// Every other field, the generated ad included, carries over.
func (s *Service) Clone(ctx context.Context, tenantKey string, jobID int) (*types.JobProfile, error) {
	var cloned types.JobProfile
	err := s.mutate(ctx, tenantKey, func(coll *types.JobProfileCollection) error {
		source := coll.Find(jobID)
		if source == nil {
			return &NotFoundError{JobID: jobID}
		}
		dup := *source
		dup.JobID = nextJobID(coll)
		coll.Profiles = append(coll.Profiles, dup)
		cloned = dup
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("cloned job profile",
		zap.String("tenant", tenantKey),
		zap.Int("source_id", jobID), zap.Int("job_id", cloned.JobID))
	return &cloned, nil
}

// SetStatus changes the workflow state. Status changes do not refresh the
// update stamp; they are not content edits.
func (s *Service) SetStatus(ctx context.Context, tenantKey string, jobID int, status types.JobStatus) error {
	return s.mutate(ctx, tenantKey, func(coll *types.JobProfileCollection) error {
		profile := coll.Find(jobID)
		if profile == nil {
			return &NotFoundError{JobID: jobID}
		}
		profile.Status = status
		return nil
	})
}

// StoreGeneratedAd persists freshly generated advertisement text.
// generatedFrom is the update stamp of the profile content the text was
// built from; recording it, rather than the stamp at save time, keeps an
// ad produced from an already-edited profile marked stale.
func (s *Service) StoreGeneratedAd(ctx context.Context, tenantKey string, jobID int, text string, generatedFrom time.Time) (*types.JobProfile, error) {
	var updated types.JobProfile
	err := s.mutate(ctx, tenantKey, func(coll *types.JobProfileCollection) error {
		profile := coll.Find(jobID)
		if profile == nil {
			return &NotFoundError{JobID: jobID}
		}
		profile.GeneratedAd = text
		profile.AdGeneratedStamp = generatedFrom
		updated = *profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// OverwriteAdText replaces the advertisement text in place. Manual edits are
// trusted as already in sync, so neither the update stamp nor the generation
// marker moves.
func (s *Service) OverwriteAdText(ctx context.Context, tenantKey string, jobID int, text string) error {
	return s.mutate(ctx, tenantKey, func(coll *types.JobProfileCollection) error {
		profile := coll.Find(jobID)
		if profile == nil {
			return &NotFoundError{JobID: jobID}
		}
		profile.GeneratedAd = text
		return nil
	})
}

// Get returns a single profile by id.
func (s *Service) Get(ctx context.Context, tenantKey string, jobID int) (*types.JobProfile, error) {
	coll, err := s.repo.JobProfiles(ctx, tenantKey)
	if err != nil {
		return nil, err
	}
	profile := coll.Find(jobID)
	if profile == nil {
		return nil, &NotFoundError{JobID: jobID}
	}
	result := *profile
	return &result, nil
}

// ListFilter narrows and orders a listing. The zero value is the default
// view: non-deleted profiles, any status, ascending by job id.
type ListFilter struct {
	IncludeDeleted bool
	Status         types.JobStatus
	Descending     bool
}

// List returns the tenant's profiles matching the filter.
func (s *Service) List(ctx context.Context, tenantKey string, filter ListFilter) ([]types.JobProfile, error) {
	coll, err := s.repo.JobProfiles(ctx, tenantKey)
	if err != nil {
		return nil, err
	}

	result := make([]types.JobProfile, 0, len(coll.Profiles))
	for _, p := range coll.Profiles {
		if p.Deleted && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if filter.Descending {
			return result[i].JobID > result[j].JobID
		}
		return result[i].JobID < result[j].JobID
	})
	return result, nil
}
