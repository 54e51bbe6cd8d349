package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/adwriter/internal/jobs"
	"github.com/jonathan/adwriter/internal/types"
)

// JobProfileRequest is the create/edit body. Absent fields stay untouched on
// edit; unknown fields are rejected so typos fail loudly instead of
// vanishing.
type JobProfileRequest struct {
	Title             *string `json:"job_title" validate:"omitempty,max=300"`
	ReportingLine     *string `json:"reporting_line" validate:"omitempty,max=300"`
	Responsibilities  *string `json:"responsibilities" validate:"omitempty,max=10000"`
	IdealCandidate    *string `json:"ideal_candidate" validate:"omitempty,max=10000"`
	CompensationRange *string `json:"compensation_range" validate:"omitempty,max=300"`
	Location          *string `json:"location" validate:"omitempty,max=300"`
	WorkArrangement   *string `json:"work_arrangement" validate:"omitempty,max=100"`
	VisaSponsorship   *string `json:"visa_sponsorship" validate:"omitempty,max=100"`
}

func (req *JobProfileRequest) update() jobs.ProfileUpdate {
	return jobs.ProfileUpdate{
		Title:             req.Title,
		ReportingLine:     req.ReportingLine,
		Responsibilities:  req.Responsibilities,
		IdealCandidate:    req.IdealCandidate,
		CompensationRange: req.CompensationRange,
		Location:          req.Location,
		WorkArrangement:   req.WorkArrangement,
		VisaSponsorship:   req.VisaSponsorship,
	}
}

func (s *Server) decodeJobRequest(w http.ResponseWriter, r *http.Request) (*JobProfileRequest, bool) {
	var req JobProfileRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return nil, false
	}
	return &req, true
}

// handleListJobs lists the tenant's job profiles. Query parameters:
// show_deleted=yes includes soft-deleted profiles, status filters by
// workflow state, order=desc reverses the job-id ordering.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter := jobs.ListFilter{
		IncludeDeleted: r.URL.Query().Get("show_deleted") == "yes",
		Status:         types.JobStatus(r.URL.Query().Get("status")),
		Descending:     r.URL.Query().Get("order") == "desc",
	}
	list, err := s.jobs.List(r.Context(), tenantKey, filter)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"job_profiles": list,
		"count":        len(list),
	})
}

// handleCreateJob creates a job profile under the smallest free id.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	req, ok := s.decodeJobRequest(w, r)
	if !ok {
		return
	}

	profile, err := s.jobs.Create(r.Context(), tenantKey, req.update())
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, profile)
}

// handleGetJob returns one job profile by id.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	jobID, ok := jobIDPath(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job profile ID")
		return
	}

	profile, err := s.jobs.Get(r.Context(), tenantKey, jobID)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleUpdateJob edits a job profile. The update stamp moves only when a
// supplied field actually differs.
func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	jobID, ok := jobIDPath(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job profile ID")
		return
	}
	req, ok := s.decodeJobRequest(w, r)
	if !ok {
		return
	}

	profile, err := s.jobs.Edit(r.Context(), tenantKey, jobID, req.update())
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleDeleteJob soft-deletes a job profile; it stays recoverable.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	jobID, ok := jobIDPath(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job profile ID")
		return
	}

	if err := s.jobs.SoftDelete(r.Context(), tenantKey, jobID); err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"job_id": jobID, "deleted": true})
}

// handleRecoverJob clears the soft-delete flag.
func (s *Server) handleRecoverJob(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	jobID, ok := jobIDPath(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job profile ID")
		return
	}

	if err := s.jobs.Recover(r.Context(), tenantKey, jobID); err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"job_id": jobID, "deleted": false})
}

// handleCloneJob deep-copies a job profile under a fresh id.
func (s *Server) handleCloneJob(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	jobID, ok := jobIDPath(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job profile ID")
		return
	}

	clone, err := s.jobs.Clone(r.Context(), tenantKey, jobID)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, clone)
}
