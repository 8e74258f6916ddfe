// Package logger implements the structured application logger.
//
// Every call formats a human-readable record, writes it synchronously to the
// console (zerolog) on the channel chosen by its severity, and then, if the
// payload asks for it, fans out to two optional collaborators:
//
//   - a Notifier that receives the formatted record as alert text;
//   - a Sink that appends a persisted projection of the event.
//
// Both fan-out calls run in their own goroutine, bounded by a timeout and
// detached from the caller's cancellation. A failure in one never affects the
// other and never reaches the caller; it is written to the console only, with
// no further alerting or persistence.
package logger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
	"github.com/tbourn/go-api-boilerplate/internal/notify"
	"github.com/tbourn/go-api-boilerplate/internal/observability"
)

const defaultTimeout = 10 * time.Second

// Sink is an append-only store for persisted log records.
type Sink interface {
	Append(ctx context.Context, rec *domain.ExceptionLog) error
}

// Notifier delivers alert text to an outward channel. It should return
// notify.ErrNotConfigured (or an error wrapping it) when it lacks credentials.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Option configures a Logger.
type Option func(*Logger)

// WithSink sets the persistence collaborator used for SaveToDB.
func WithSink(s Sink) Option { return func(l *Logger) { l.sink = s } }

// WithNotifier sets the alert collaborator used for SendAlert.
func WithNotifier(n Notifier) Option { return func(l *Logger) { l.notifier = n } }

// WithTimeout bounds each individual alert or persistence call. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(l *Logger) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// Logger is safe for concurrent use. Loggers derived with Named share their
// collaborators and in-flight tracking with the parent.
type Logger struct {
	name     string
	base     zerolog.Logger
	console  zerolog.Logger
	sink     Sink
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
	inflight *sync.WaitGroup
}

// New returns a Logger writing console records to console.
func New(console zerolog.Logger, opts ...Option) *Logger {
	l := &Logger{
		name:     "Logger",
		base:     console,
		timeout:  defaultTimeout,
		now:      time.Now,
		inflight: &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.console = l.base.With().Str("logger", l.name).Logger()
	return l
}

// Named returns a copy of l whose console records carry logger=name.
func (l *Logger) Named(name string) *Logger {
	cp := *l
	cp.name = name
	cp.console = l.base.With().Str("logger", name).Logger()
	cp.console.Debug().Msgf("Logger initialized with name: %s", name)
	return &cp
}

// Name returns the name attached to console records.
func (l *Logger) Name() string { return l.name }

func (l *Logger) Fatal(ctx context.Context, message string, payload ...Payload) {
	l.emit(ctx, message, first(payload), domain.SeverityFatal)
}

func (l *Logger) Error(ctx context.Context, message string, payload ...Payload) {
	l.emit(ctx, message, first(payload), domain.SeverityError)
}

func (l *Logger) Warn(ctx context.Context, message string, payload ...Payload) {
	l.emit(ctx, message, first(payload), domain.SeverityWarn)
}

func (l *Logger) Info(ctx context.Context, message string, payload ...Payload) {
	l.emit(ctx, message, first(payload), domain.SeverityInfo)
}

func (l *Logger) Debug(ctx context.Context, message string, payload ...Payload) {
	l.emit(ctx, message, first(payload), domain.SeverityDebug)
}

// Log emits at an explicit severity.
func (l *Logger) Log(ctx context.Context, sev domain.Severity, message string, payload ...Payload) {
	l.emit(ctx, message, first(payload), sev)
}

// Wait blocks until every alert and persistence call started so far has
// returned. It does not prevent new calls from starting.
func (l *Logger) Wait() { l.inflight.Wait() }

func (l *Logger) emit(ctx context.Context, message string, p Payload, sev domain.Severity) {
	if ctx == nil {
		ctx = context.Background()
	}
	p = p.withDefaults()
	ts := l.now().UTC()
	text := Format(message, p, sev)

	l.write(sev, p.Context, text)
	logEvents.WithLabelValues(sev.String()).Inc()

	if p.Options.SendAlert {
		l.alert(ctx, text)
	}
	if p.Options.SaveToDB {
		l.persist(ctx, newRecord(message, p, sev, ts))
	}
}

// write is the console step. FATAL goes to the error channel; zerolog's own
// Fatal would exit the process.
func (l *Logger) write(sev domain.Severity, component, text string) {
	var ev *zerolog.Event
	switch sev.Channel() {
	case domain.ChannelDebug:
		ev = l.console.Debug()
	case domain.ChannelInfo:
		ev = l.console.Info()
	case domain.ChannelWarn:
		ev = l.console.Warn()
	default:
		ev = l.console.Error()
	}
	ev.Str("severity", sev.String()).Str("context", component).Msg(text)
}

func (l *Logger) alert(ctx context.Context, text string) {
	if l.notifier == nil {
		l.console.Debug().Msg("alert skipped: no notifier configured")
		return
	}
	l.goFanout(ctx, targetAlert, func(ctx context.Context) error {
		err := safeCall(func() error { return l.notifier.Notify(ctx, text) })
		if err == nil {
			return nil
		}
		fanoutFailures.WithLabelValues(targetAlert).Inc()
		if errors.Is(err, notify.ErrNotConfigured) {
			l.emit(ctx, "Alert not sent: notifier is not configured", Payload{
				Context: "Notifier",
				Cause:   err,
			}, domain.SeverityWarn)
			return err
		}
		l.emit(ctx, "Failed to send alert", Payload{
			Context: "Notifier",
			Cause:   err,
		}, domain.SeverityError)
		return err
	})
}

func (l *Logger) persist(ctx context.Context, rec *domain.ExceptionLog) {
	if l.sink == nil {
		l.console.Debug().Msg("persist skipped: no sink configured")
		return
	}
	l.goFanout(ctx, targetPersist, func(ctx context.Context) error {
		err := safeCall(func() error { return l.sink.Append(ctx, rec) })
		if err == nil {
			return nil
		}
		fanoutFailures.WithLabelValues(targetPersist).Inc()
		l.emit(ctx, "Failed to save log", Payload{
			Context:  "LogSink",
			Metadata: map[string]any{"id": rec.ID, "context": rec.Context, "severity": rec.Severity.String()},
			Cause:    err,
		}, domain.SeverityError)
		return err
	})
}

// goFanout runs fn in its own goroutine with a bounded context that survives
// cancellation of ctx (the request may already be answered). Each call gets
// its own span named after target.
func (l *Logger) goFanout(ctx context.Context, target string, fn func(context.Context) error) {
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		fctx, span := observability.StartSpan(fctx, "logger."+target, attribute.String("logger.name", l.name))
		observability.EndSpan(span, fn(fctx))
	}()
}

// safeCall turns a panicking collaborator into an ordinary error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func newRecord(message string, p Payload, sev domain.Severity, ts time.Time) *domain.ExceptionLog {
	return &domain.ExceptionLog{
		ID:        uuid.NewString(),
		Message:   message,
		Context:   p.Context,
		Severity:  sev,
		Metadata:  cloneMap(p.Metadata),
		Data:      cloneMap(p.Data),
		Cause:     domain.NewCause(p.Cause),
		Timestamp: ts,
	}
}

// cloneMap copies the top level of m so the record does not share the
// caller's map with the fan-out goroutine.
func cloneMap(m map[string]any) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
