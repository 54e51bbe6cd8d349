package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/jonathan/adwriter/internal/payments"
	"github.com/jonathan/adwriter/internal/types"
)

// SubmitRequest selects which credit counter a checkout consumes.
type SubmitRequest struct {
	Service string `json:"service" validate:"required,oneof=standard_service premium_service"`
}

// CheckoutRequest initiates a credit purchase at the payment provider.
type CheckoutRequest struct {
	Service string `json:"service" validate:"required,oneof=standard_service premium_service"`
	Amount  int    `json:"amount" validate:"required,gt=0,lte=1000"`
}

// CheckoutResponse carries the provider redirect URL.
type CheckoutResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// handleSubmitJob consumes one credit and marks the job profile Submitted.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
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

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := s.checkout.Submit(r.Context(), tenantKey, jobID, types.ServiceKind(req.Service)); err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"job_id":     jobID,
		"job_status": types.JobStatusSubmitted,
	})
}

// handleInitiateCheckout asks the payment provider for a checkout session
// and returns its redirect URL. Credits arrive later via the webhook.
func (s *Server) handleInitiateCheckout(w http.ResponseWriter, r *http.Request) {
	tenantKey, err := s.tenantKey(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if s.initiator == nil {
		s.errorResponse(w, http.StatusNotImplemented, "No payment provider configured")
		return
	}

	url, err := s.initiator.InitiateCheckout(r.Context(), tenantKey, types.ServiceKind(req.Service), req.Amount)
	if err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, CheckoutResponse{RedirectURL: url})
}

// handlePaymentWebhook receives the provider's completed-payment
// notification. It is authenticated with the shared webhook secret, not a
// user token, and is idempotent per event id.
func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.webhookSecret)) != 1 {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var ev payments.CompletedEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.processor.HandleCompleted(r.Context(), ev); err != nil {
		s.domainError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "processed"})
}
