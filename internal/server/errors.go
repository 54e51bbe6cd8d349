// Package server provides the HTTP REST API for the job-ad manager.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/adwriter/internal/adgen"
	"github.com/jonathan/adwriter/internal/credits"
	"github.com/jonathan/adwriter/internal/docstore"
	"github.com/jonathan/adwriter/internal/jobs"
)

// HTTPStatus maps domain errors onto response codes.
func HTTPStatus(err error) int {
	var notFound *jobs.NotFoundError
	var idInUse *jobs.IDInUseError
	var generation *adgen.GenerationError
	var store *docstore.StoreError

	switch {
	case errors.As(err, &notFound), errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, credits.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, credits.ErrUnknownService):
		return http.StatusBadRequest
	case errors.As(err, &idInUse), errors.Is(err, docstore.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &generation):
		return http.StatusBadGateway
	case errors.As(err, &store):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
