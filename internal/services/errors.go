// Package services defines the business logic behind the HTTP API.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Exception-log errors.
var (
	// ErrExceptionLogNotFound indicates that the requested exception log does
	// not exist.
	ErrExceptionLogNotFound = errors.New("exception log not found")

	// ErrInvalidSeverity is returned when a severity filter or record carries
	// a value outside debug|info|warn|error|fatal.
	ErrInvalidSeverity = errors.New("severity must be one of debug, info, warn, error, fatal")
)
