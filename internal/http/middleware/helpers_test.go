package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/go-api-boilerplate/internal/exceptions"
	"github.com/tbourn/go-api-boilerplate/internal/logger"
)

// loggedEvent is one call recorded by eventRecorder.
type loggedEvent struct {
	fatal   bool
	message string
	payload logger.Payload
}

// eventRecorder implements exceptions.EventLogger.
type eventRecorder struct {
	mu     sync.Mutex
	events []loggedEvent
}

func (r *eventRecorder) Fatal(_ context.Context, msg string, p ...logger.Payload) {
	r.add(true, msg, p)
}

func (r *eventRecorder) Error(_ context.Context, msg string, p ...logger.Payload) {
	r.add(false, msg, p)
}

func (r *eventRecorder) add(fatal bool, msg string, p []logger.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := loggedEvent{fatal: fatal, message: msg}
	if len(p) > 0 {
		ev.payload = p[0]
	}
	r.events = append(r.events, ev)
}

func (r *eventRecorder) all() []loggedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]loggedEvent(nil), r.events...)
}

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 678_000_000, time.UTC)

func newTestPipeline() (*exceptions.Pipeline, *eventRecorder) {
	rec := &eventRecorder{}
	p := exceptions.NewPipeline(rec, exceptions.WithClock(func() time.Time { return fixedNow }))
	return p, rec
}
