package types

import "time"

// JobStatus is the workflow state of a job profile.
type JobStatus string

// Job profile workflow states.
const (
	JobStatusDraft     JobStatus = "Draft"
	JobStatusSubmitted JobStatus = "Submitted"
	JobStatusClosed    JobStatus = "Closed"
)

// JobProfile is one record in a tenant's job profile collection.
//
// UpdatedAt is stamped only when an edit actually changes a descriptive
// field; AdGeneratedStamp records the UpdatedAt value that was current when
// the advertisement was last generated. The two together drive staleness
// detection.
type JobProfile struct {
	JobID int `json:"job_id"`

	Title             string `json:"job_title"`
	ReportingLine     string `json:"reporting_line,omitempty"`
	Responsibilities  string `json:"responsibilities,omitempty"`
	IdealCandidate    string `json:"ideal_candidate,omitempty"`
	CompensationRange string `json:"compensation_range,omitempty"`
	Location          string `json:"location,omitempty"`
	WorkArrangement   string `json:"work_arrangement,omitempty"`
	VisaSponsorship   string `json:"visa_sponsorship,omitempty"`

	Status  JobStatus `json:"job_status"`
	Deleted bool      `json:"deleted"`

	GeneratedAd      string    `json:"generated_ad"`
	UpdatedAt        time.Time `json:"profile_updated_at"`
	AdGeneratedStamp time.Time `json:"ad_generated_stamp,omitempty"`
}

// JobProfileCollection is the per-tenant document holding all job profiles.
type JobProfileCollection struct {
	ID        string       `json:"id"`
	TenantKey string       `json:"user_id"`
	Profiles  []JobProfile `json:"job_profiles"`

	// Revision is the document-store revision token of the loaded copy.
	Revision int64 `json:"-"`
}

// Find returns the profile with the given job ID, or nil. Soft-deleted ids
// are recycled by later creations, so a deleted and a live profile can share
// an id; the live one wins.
func (c *JobProfileCollection) Find(jobID int) *JobProfile {
	var deleted *JobProfile
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if p.JobID != jobID {
			continue
		}
		if !p.Deleted {
			return p
		}
		if deleted == nil {
			deleted = p
		}
	}
	return deleted
}
