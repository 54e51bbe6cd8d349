package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/adwriter/internal/server/middleware"
	"github.com/jonathan/adwriter/internal/tenant"
)

// ErrorResponse is the JSON body of every failure response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, ErrorResponse{Error: message})
}

// domainError renders a domain error with its mapped status code.
func (s *Server) domainError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.Int("status", status),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
	}
	s.errorResponse(w, status, err.Error())
}

// tenantKey resolves the partition key for the authenticated request.
func (s *Server) tenantKey(r *http.Request) (string, error) {
	claims, err := middleware.Claims(r)
	if err != nil {
		return "", err
	}
	return tenant.Resolve(claims), nil
}

// jobIDPath parses the {id} path segment.
func jobIDPath(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
