// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector and the request-scoped logger:
//
//   - RequestID() ensures every request carries a stable correlation ID
//     (propagated via X-Request-ID and stored in the Gin context).
//   - Logger() attaches a request-scoped zerolog.Logger carrying the request
//     ID, platform key and route.
//   - LoggerFrom() retrieves that logger inside guards and handlers
//     (e.g., lg.Info().Str("log_id", id).Msg("…")).
//
// The one access line per request is written by RedactingLogger; panics and
// handler errors are handled by ExceptionFilter. Recommended order:
//
//  1. RequestID()
//  2. Logger()
//  3. RedactingLogger(...)
//  4. ExceptionFilter(p)
//
// so that the access log sees the final status written by the filter.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// loggerKey is the Gin context key of the request-scoped logger.
	loggerKey = "logger"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// maxQueryLogLength caps the number of bytes of the scrubbed query logged.
	maxQueryLogLength = 2048
	// maxPlatformLogLength caps the X-Platform-Key value attached to logs.
	maxPlatformLogLength = 128
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// Behavior:
//   - If the incoming request has X-Request-ID (header lookup is case-insensitive),
//     that value is reused. Otherwise, a new UUIDv4 is generated.
//   - The ID is written back to the response header (X-Request-ID) and stored
//     in the Gin context under the "requestID" key.
//
// Place this early in the chain so subsequent middleware/handlers can rely on
// the ID for logging and error responses.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger attaches a request-scoped zerolog.Logger to the Gin context (key
// "logger") carrying the correlation ID, platform key, method, route and
// client IP, so handlers and guards emit logs tied to the request.
//
// It writes no access line of its own; RedactingLogger owns that, and the
// query string is never added here because it is logged only after scrubbing.
//
// Place this after RequestID() so the scoped logger carries the correlation ID.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid, _ := c.Get(requestIDKey)
		platform := strings.TrimSpace(c.GetHeader(PlatformKeyHeader))
		c.Set(ctxKeyPlatform, platform)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", asString(rid)).
			Str("platform", truncate(platform, maxPlatformLogLength)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()
	}
}

// withUser replaces the request-scoped logger with one that also carries the
// authenticated principal.
func withUser(c *gin.Context, userID string) {
	l := LoggerFrom(c).With().Str("user_id", userID).Logger()
	c.Set(loggerKey, &l)
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If a logger was not previously attached by Logger(), a fallback logger is
// returned (without request-scoped fields). Callers can safely use the result
// without nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString converts an arbitrary interface to a string, returning an empty
// string when the value is not a string. Used for context values.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
//
// Note: This operates on bytes (not runes) which is acceptable for logging.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
