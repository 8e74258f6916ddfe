// Handler wiring.
//
// Endpoints:
//   - GET /                       (health)
//   - GET /exception-logs         (list, paginated, filterable)
//   - GET /exception-logs/{id}    (single record)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into APIResponse envelopes. Failures are
// attached with fail() and rendered by ExceptionFilter.
package handlers

import (
	"context"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
	"github.com/tbourn/go-api-boilerplate/internal/services"
)

// ExceptionLogReader defines the read side of the exception log store
// consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ExceptionLogReader interface {
	// Get returns one record or services.ErrExceptionLogNotFound.
	Get(ctx context.Context, id string) (*domain.ExceptionLog, error)
	// ListPage returns a page of records (newest first) and the total count.
	ListPage(ctx context.Context, q services.ExceptionLogQuery, page, pageSize int) ([]domain.ExceptionLog, int64, error)
}

// Handlers groups the HTTP endpoints of the service.
type Handlers struct {
	logs ExceptionLogReader
}

// New constructs and returns a Handlers instance bound to the given services.
func New(logs ExceptionLogReader) *Handlers {
	return &Handlers{logs: logs}
}
