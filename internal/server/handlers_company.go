package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/adwriter/internal/events"
)

// CompanyProfileRequest is the PUT body for the company profile. Credits are
// deliberately absent: counters change only through payments and checkout.
type CompanyProfileRequest struct {
	Name            string `json:"company_name" validate:"required,max=200"`
	Website         string `json:"website" validate:"omitempty,max=500"`
	Phone           string `json:"phone" validate:"omitempty,max=50"`
	AddressLine1    string `json:"address_line1" validate:"omitempty,max=200"`
	AddressLine2    string `json:"address_line2" validate:"omitempty,max=200"`
	City            string `json:"city" validate:"omitempty,max=100"`
	Country         string `json:"country" validate:"omitempty,max=100"`
	WorkingHours    string `json:"working_hours" validate:"omitempty,max=100"`
	WorkingDays     string `json:"working_days" validate:"omitempty,max=100"`
	WorkArrangement string `json:"work_arrangement" validate:"omitempty,max=100"`
}

// handleGetCompanyProfile returns the tenant's company profile, lazily
// defaulted when none has been saved yet.
func (s *Server) handleGetCompanyProfile(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := s.repo.CompanyProfile(r.Context(), tenantKey)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handlePutCompanyProfile updates the editable company fields and persists
// the document, creating it on first save.
func (s *Server) handlePutCompanyProfile(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CompanyProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	profile, err := s.repo.CompanyProfile(r.Context(), tenantKey)
	if err != nil {
		s.domainError(w, r, err)
		return
	}

	profile.Name = req.Name
	profile.Website = req.Website
	profile.Phone = req.Phone
	profile.AddressLine1 = req.AddressLine1
	profile.AddressLine2 = req.AddressLine2
	profile.City = req.City
	profile.Country = req.Country
	profile.WorkingHours = req.WorkingHours
	profile.WorkingDays = req.WorkingDays
	profile.WorkArrangement = req.WorkArrangement

	if err := s.repo.SaveCompanyProfile(r.Context(), profile); err != nil {
		s.domainError(w, r, err)
		return
	}

	s.producer.Produce(events.Event{
		Type:      events.ProfileUpdated,
		TenantKey: tenantKey,
	})
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleGetCredits returns the tenant's credit balance.
func (s *Server) handleGetCredits(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	balance, err := s.ledger.Balance(r.Context(), tenantKey)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, balance)
}
