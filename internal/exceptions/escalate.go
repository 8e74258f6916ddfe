package exceptions

import (
	"net/http"
	"strings"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
)

// defaultMarkers flag infrastructure-level failures. Matching is a
// case-sensitive substring test against the classified message.
var defaultMarkers = []string{
	"Mongo",
	"UnhandledPromise",
	"TypeError",
	"ECONNREFUSED",
	"Redis",
	"Connection timeout",
}

// DefaultMarkers returns a copy of the built-in escalation markers.
func DefaultMarkers() []string {
	return append([]string(nil), defaultMarkers...)
}

// Escalator upgrades ERROR to FATAL for server errors whose message contains
// one of its markers. It holds no mutable state and is safe for concurrent use.
type Escalator struct {
	markers []string
}

// DefaultEscalator uses DefaultMarkers only.
var DefaultEscalator = NewEscalator()

// NewEscalator returns an Escalator using the default markers followed by
// extra. Empty and duplicate markers are dropped.
func NewEscalator(extra ...string) *Escalator {
	seen := make(map[string]struct{}, len(defaultMarkers)+len(extra))
	markers := make([]string, 0, len(defaultMarkers)+len(extra))
	for _, m := range append(DefaultMarkers(), extra...) {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		markers = append(markers, m)
	}
	return &Escalator{markers: markers}
}

// Markers returns a copy of the configured markers in match order.
func (e *Escalator) Markers() []string {
	return append([]string(nil), e.markers...)
}

// Escalate returns SeverityFatal when status >= 500, current is exactly
// SeverityError and message contains a marker. Any other input returns
// current unchanged, so explicit severities are never touched.
func (e *Escalator) Escalate(status int, message string, current domain.Severity) domain.Severity {
	if status < http.StatusInternalServerError || current != domain.SeverityError {
		return current
	}
	if e.matches(message) {
		return domain.SeverityFatal
	}
	return current
}

func (e *Escalator) matches(message string) bool {
	for _, m := range e.markers {
		if strings.Contains(message, m) {
			return true
		}
	}
	return false
}
