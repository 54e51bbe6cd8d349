// Package ads orchestrates advertisement reads and regeneration: it decides
// when the expensive generation call runs and keeps the staleness marker in
// step with the stored ad text.
package ads

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/adwriter/internal/adgen"
	"github.com/jonathan/adwriter/internal/events"
	"github.com/jonathan/adwriter/internal/jobs"
	"github.com/jonathan/adwriter/internal/llm"
	"github.com/jonathan/adwriter/internal/profiles"
	"github.com/jonathan/adwriter/internal/staleness"
	"github.com/jonathan/adwriter/internal/types"
)

// Ad is an advertisement as presented to the caller.
type Ad struct {
	JobID int    `json:"job_id"`
	Text  string `json:"text"`
	// Stale reports whether the text is known to be out of sync with the
	// profile it was generated from.
	Stale bool `json:"stale"`
}

// Service coordinates profiles, generation and staleness tracking.
type Service struct {
	repo     *profiles.Repository
	jobs     *jobs.Service
	gateway  *adgen.Gateway
	tracker  *staleness.Tracker
	producer *events.Producer
	log      *zap.Logger
}

// NewService creates the orchestration service. producer may be nil when
// event publishing is disabled.
func NewService(repo *profiles.Repository, jobSvc *jobs.Service, gateway *adgen.Gateway, tracker *staleness.Tracker, producer *events.Producer, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		jobs:     jobSvc,
		gateway:  gateway,
		tracker:  tracker,
		producer: producer,
		log:      log.Named("ads"),
	}
}

// Fetch returns the advertisement for a job profile. The very first request
// generates the ad; afterwards Fetch is an idempotent read that reports, but
// does not repair, staleness. Regeneration is a separate, explicit request.
func (s *Service) Fetch(ctx context.Context, tenantKey string, jobID int) (*Ad, error) {
	job, err := s.jobs.Get(ctx, tenantKey, jobID)
	if err != nil {
		return nil, err
	}

	if job.GeneratedAd == "" {
		return s.generate(ctx, tenantKey, job, llm.TierStandard)
	}

	stale, err := s.tracker.IsStale(ctx, tenantKey, job)
	if err != nil {
		return nil, err
	}
	return &Ad{JobID: job.JobID, Text: job.GeneratedAd, Stale: stale}, nil
}

// Regenerate forces one generation call and clears staleness.
func (s *Service) Regenerate(ctx context.Context, tenantKey string, jobID int, kind types.ServiceKind) (*Ad, error) {
	job, err := s.jobs.Get(ctx, tenantKey, jobID)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, tenantKey, job, tierFor(kind))
}

// UpdateText overwrites the advertisement by hand. Manual edits are trusted
// as in sync, so no staleness bookkeeping happens here.
func (s *Service) UpdateText(ctx context.Context, tenantKey string, jobID int, text string) error {
	return s.jobs.OverwriteAdText(ctx, tenantKey, jobID, text)
}

func (s *Service) generate(ctx context.Context, tenantKey string, job *types.JobProfile, tier llm.ModelTier) (*Ad, error) {
	company, err := s.repo.CompanyProfile(ctx, tenantKey)
	if err != nil {
		return nil, err
	}

	// The marker must describe the content the prompt was built from. An
	// edit landing while the model call is in flight then leaves the stored
	// ad correctly marked stale.
	observed := job.UpdatedAt

	text, err := s.gateway.Generate(ctx, tenantKey, job, company, tier)
	if err != nil {
		return nil, err
	}

	updated, err := s.jobs.StoreGeneratedAd(ctx, tenantKey, job.JobID, text, observed)
	if err != nil {
		return nil, err
	}
	if err := s.tracker.Clear(ctx, tenantKey, job.JobID, observed); err != nil {
		// The ad itself persisted; a marker write failure only risks one
		// spurious regeneration.
		s.log.Warn("failed to clear staleness marker",
			zap.String("tenant", tenantKey), zap.Int("job_id", job.JobID), zap.Error(err))
	}

	s.producer.Produce(events.Event{
		Type:      events.AdGenerated,
		TenantKey: tenantKey,
		JobID:     job.JobID,
	})
	s.log.Info("generated advertisement",
		zap.String("tenant", tenantKey), zap.Int("job_id", job.JobID), zap.String("tier", string(tier)))

	return &Ad{JobID: updated.JobID, Text: updated.GeneratedAd, Stale: staleness.Stale(updated.UpdatedAt, observed)}, nil
}

func tierFor(kind types.ServiceKind) llm.ModelTier {
	if kind == types.ServicePremium {
		return llm.TierPremium
	}
	return llm.TierStandard
}
