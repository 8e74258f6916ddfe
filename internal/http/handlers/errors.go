package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
	"github.com/tbourn/go-api-boilerplate/internal/exceptions"
	"github.com/tbourn/go-api-boilerplate/internal/services"
)

// Client-facing messages for failures raised by this package.
const (
	MsgRouteNotFound    = "Route not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInvalidID        = "id must be a UUID"
	MsgInvalidSince     = "since must be an RFC 3339 timestamp"
)

// serviceError maps a service error onto the failure handed to fail().
//
// Known service errors become AppErrors with a client status and WARN
// severity; anything else is wrapped as a 500 so the classifier keeps the
// original error as cause.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrExceptionLogNotFound):
		return exceptions.Wrap(err, err.Error(), http.StatusNotFound, domain.SeverityWarn)
	case errors.Is(err, services.ErrInvalidSeverity):
		return exceptions.Wrap(err, err.Error(), http.StatusBadRequest, domain.SeverityWarn)
	default:
		return exceptions.Wrap(err, "Failed to read exception logs", http.StatusInternalServerError, domain.SeverityError)
	}
}
