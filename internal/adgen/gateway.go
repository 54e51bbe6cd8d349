// Package adgen builds the advertisement prompt and performs the single
// external text-generation call. It does no caching and no retrying; cache
// validity is the staleness tracker's concern and a generation failure is
// fatal to the request that triggered it.
package adgen

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonathan/adwriter/internal/llm"
	"github.com/jonathan/adwriter/internal/types"
)

//go:embed prompts/job_ad.md
var jobAdPromptRaw string

// Parsed once at package init; reused on every Generate call.
var jobAdTemplate = template.Must(template.New("job_ad").Parse(jobAdPromptRaw))

// GenerationError wraps a failure of the external generation capability.
// There is no fallback text; the caller surfaces the error.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("ad generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// promptData feeds the template. All fields are plain strings so missing
// profile values render as empty strings, never as nulls.
type promptData struct {
	CompanyName        string
	Website            string
	City               string
	Country            string
	WorkingHours       string
	WorkingDays        string
	CompanyArrangement string

	Title             string
	ReportingLine     string
	Responsibilities  string
	IdealCandidate    string
	CompensationRange string
	Location          string
	WorkArrangement   string
	VisaSponsorship   string
}

// Gateway generates advertisement text through an llm.Client. Concurrent
// requests for the same tenant and job collapse into one provider call.
type Gateway struct {
	client  llm.Client
	timeout time.Duration
	group   singleflight.Group
}

// NewGateway creates a gateway. timeout bounds each provider call.
func NewGateway(client llm.Client, timeout time.Duration) *Gateway {
	return &Gateway{client: client, timeout: timeout}
}

// BuildPrompt renders the advertisement prompt deterministically from the
// two profiles.
func BuildPrompt(job *types.JobProfile, company *types.CompanyProfile) (string, error) {
	data := promptData{
		CompanyName:        company.Name,
		Website:            company.Website,
		City:               company.City,
		Country:            company.Country,
		WorkingHours:       company.WorkingHours,
		WorkingDays:        company.WorkingDays,
		CompanyArrangement: company.WorkArrangement,

		Title:             job.Title,
		ReportingLine:     job.ReportingLine,
		Responsibilities:  job.Responsibilities,
		IdealCandidate:    job.IdealCandidate,
		CompensationRange: job.CompensationRange,
		Location:          job.Location,
		WorkArrangement:   job.WorkArrangement,
		VisaSponsorship:   job.VisaSponsorship,
	}

	var sb strings.Builder
	if err := jobAdTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render ad prompt: %w", err)
	}
	return sb.String(), nil
}

// Generate performs exactly one generation call for the profile pair and
// returns the plain advertisement text.
func (g *Gateway) Generate(ctx context.Context, tenantKey string, job *types.JobProfile, company *types.CompanyProfile, tier llm.ModelTier) (string, error) {
	prompt, err := BuildPrompt(job, company)
	if err != nil {
		return "", err
	}

	// Tier is part of the key: a premium request must not piggyback on an
	// in-flight standard call for the same job.
	key := fmt.Sprintf("%s/%d/%s", tenantKey, job.JobID, tier)
	v, err, _ := g.group.Do(key, func() (any, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		text, err := g.client.GenerateContent(callCtx, prompt, tier)
		if err != nil {
			return "", &GenerationError{Err: err}
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
