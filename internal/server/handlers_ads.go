package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/adwriter/internal/types"
)

// RegenerateRequest selects which service tier a forced regeneration uses.
type RegenerateRequest struct {
	Service string `json:"service" validate:"omitempty,oneof=standard_service premium_service"`
}

// AdTextRequest is the manual-edit body for the advertisement text.
type AdTextRequest struct {
	Text string `json:"text" validate:"required"`
}

// handleGetAd returns the advertisement for a job profile. The first request
// generates it; later requests serve the cached text and report staleness.
func (s *Server) handleGetAd(w http.ResponseWriter, r *http.Request) {
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

	ad, err := s.ads.Fetch(r.Context(), tenantKey, jobID)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ad)
}

// handleRegenerateAd forces one generation call and clears staleness.
func (s *Server) handleRegenerateAd(w http.ResponseWriter, r *http.Request) {
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

	var req RegenerateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		if err := s.validate.Struct(req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
			return
		}
	}
	kind := types.ServiceKind(req.Service)
	if req.Service == "" {
		kind = types.ServiceStandard
	}

	ad, err := s.ads.Regenerate(r.Context(), tenantKey, jobID, kind)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ad)
}

// handlePutAdText overwrites the ad text by hand. Trusted as in sync; no
// staleness bookkeeping.
func (s *Server) handlePutAdText(w http.ResponseWriter, r *http.Request) {
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

	var req AdTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := s.ads.UpdateText(r.Context(), tenantKey, jobID, req.Text); err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"job_id": jobID})
}
