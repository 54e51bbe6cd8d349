package jobs

import "github.com/jonathan/adwriter/internal/types"

// ProfileUpdate carries the recognized editable fields of a job profile.
// Nil pointers mean "not supplied"; supplied fields are applied all together
// when at least one of them differs from the stored value.
type ProfileUpdate struct {
	Title             *string `json:"job_title,omitempty"`
	ReportingLine     *string `json:"reporting_line,omitempty"`
	Responsibilities  *string `json:"responsibilities,omitempty"`
	IdealCandidate    *string `json:"ideal_candidate,omitempty"`
	CompensationRange *string `json:"compensation_range,omitempty"`
	Location          *string `json:"location,omitempty"`
	WorkArrangement   *string `json:"work_arrangement,omitempty"`
	VisaSponsorship   *string `json:"visa_sponsorship,omitempty"`
}

// fields pairs each supplied update value with its target on the profile.
// The order is fixed so updates apply deterministically.
func (u *ProfileUpdate) fields(p *types.JobProfile) []struct {
	dst *string
	src *string
} {
	return []struct {
		dst *string
		src *string
	}{
		{&p.Title, u.Title},
		{&p.ReportingLine, u.ReportingLine},
		{&p.Responsibilities, u.Responsibilities},
		{&p.IdealCandidate, u.IdealCandidate},
		{&p.CompensationRange, u.CompensationRange},
		{&p.Location, u.Location},
		{&p.WorkArrangement, u.WorkArrangement},
		{&p.VisaSponsorship, u.VisaSponsorship},
	}
}

// changes reports whether any supplied field differs from the profile's
// current value.
func (u *ProfileUpdate) changes(p *types.JobProfile) bool {
	for _, f := range u.fields(p) {
		if f.src != nil && *f.dst != *f.src {
			return true
		}
	}
	return false
}

// apply writes every supplied field onto the profile.
func (u *ProfileUpdate) apply(p *types.JobProfile) {
	for _, f := range u.fields(p) {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
}
