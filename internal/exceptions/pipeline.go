package exceptions

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
	"github.com/tbourn/go-api-boilerplate/internal/logger"
)

// PipelineContext is the component name attached to every log event the
// pipeline emits.
const PipelineContext = "GlobalExceptionPipeline"

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrorBody is the JSON error response returned for every handled failure.
type ErrorBody struct {
	StatusCode int    `json:"statusCode" example:"500"`
	Timestamp  string `json:"timestamp"  example:"2025-01-01T12:00:00.000Z"`
	Path       string `json:"path"       example:"/api/exception-logs?page=2"`
	Message    string `json:"message"    example:"Unexpected error occurred"`
}

// Request identifies the HTTP request a failure belongs to.
type Request struct {
	Path   string
	Method string
}

// EventLogger is the subset of *logger.Logger the pipeline needs.
type EventLogger interface {
	Fatal(ctx context.Context, message string, payload ...logger.Payload)
	Error(ctx context.Context, message string, payload ...logger.Payload)
}

// Pipeline classifies a failure, escalates its severity, logs it and builds
// the client response. One failure produces exactly one log event and one
// response; logging never blocks or prevents the response.
type Pipeline struct {
	logger    EventLogger
	escalator *Escalator
	now       func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithEscalator replaces DefaultEscalator.
func WithEscalator(e *Escalator) PipelineOption {
	return func(p *Pipeline) {
		if e != nil {
			p.escalator = e
		}
	}
}

// WithClock overrides the time source for response timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline returns a Pipeline logging through lg.
func NewPipeline(lg EventLogger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{logger: lg, escalator: DefaultEscalator, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catch handles one failure and returns the status code and body to write.
func (p *Pipeline) Catch(ctx context.Context, failure any, req Request) (int, ErrorBody) {
	rec := Classify(failure)
	// An out-of-range status (e.g. a zero-valued AppError) is served, logged
	// and alerted as a 500.
	if rec.Status < 100 || rec.Status > 999 {
		rec.Status = http.StatusInternalServerError
	}
	rec.Severity = p.escalator.Escalate(rec.Status, rec.Message, rec.Severity)

	p.dispatch(ctx, failure, rec, req)

	return rec.Status, ErrorBody{
		StatusCode: rec.Status,
		Timestamp:  p.now().UTC().Format(TimestampLayout),
		Path:       req.Path,
		Message:    rec.Message,
	}
}

// dispatch logs the classified failure. Only FATAL takes the always-alert
// branch; every other severity alerts for server errors only.
func (p *Pipeline) dispatch(ctx context.Context, failure any, rec Record, req Request) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Int("status", rec.Status).
				Str("path", req.Path).
				Msg("exception logging failed")
		}
	}()
	if p.logger == nil {
		return
	}

	payload := logger.Payload{
		Context: PipelineContext,
		Metadata: map[string]any{
			"path":   req.Path,
			"method": req.Method,
			"status": rec.Status,
		},
		Options: logger.Options{SaveToDB: true},
	}
	if err := asError(failure); err != nil {
		payload.Cause = err
	}

	if rec.Severity == domain.SeverityFatal {
		payload.Options.SendAlert = true
		p.logger.Fatal(ctx, rec.Message, payload)
		return
	}
	payload.Options.SendAlert = rec.Status >= http.StatusInternalServerError
	p.logger.Error(ctx, rec.Message, payload)
}

func asError(v any) error {
	if err, ok := v.(error); ok && !isNilPointer(err) {
		return err
	}
	return nil
}
