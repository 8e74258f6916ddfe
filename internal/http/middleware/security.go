// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. The service answers two kinds of
// requests: JSON (health, exception logs, error bodies) and, when enabled,
// the Swagger UI under the docs prefix. JSON responses get a lock-down
// Content-Security-Policy and no-store caching; the docs prefix gets a CSP
// that lets the UI run its inline bootstrap script and keeps its assets
// cacheable.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// apiCSP forbids every fetch and framing; JSON needs neither.
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// docsCSP is what gin-swagger's index page needs: same-origin assets,
	// one inline script and inline styles, data: images for the logo.
	docsCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
		"style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

	defaultHSTSMaxAge = 180 * 24 * time.Hour
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests only. Set
	// it only when traffic is HTTPS end-to-end.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days when <= 0.
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store (plus legacy Pragma/Expires) to
	// API responses. Never applied under DocsPrefix.
	NoStore bool
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// DocsPrefix is the path prefix of the Swagger UI (e.g. "/api/docs").
	// Empty means every path is treated as API.
	DocsPrefix string
}

type headerSet [][2]string

func (hs headerSet) apply(h http.Header) {
	for _, kv := range hs {
		h.Set(kv[0], kv[1])
	}
}

// SecurityHeaders returns a middleware that sets, on every response:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//	Content-Security-Policy: apiCSP, or docsCSP under DocsPrefix
//
// plus the optional policy, no-store and HSTS headers from opt. When a request
// ID is already on the response it is exposed to browser clients.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	base := headerSet{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		base = append(base,
			[2]string{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			[2]string{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}

	api := append(headerSet{{"Content-Security-Policy", apiCSP}}, base...)
	if opt.NoStore {
		api = append(api,
			[2]string{"Cache-Control", "no-store"},
			[2]string{"Pragma", "no-cache"},
			[2]string{"Expires", "0"},
		)
	}
	docs := append(headerSet{{"Content-Security-Policy", docsCSP}}, base...)

	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	docsPrefix := strings.TrimRight(opt.DocsPrefix, "/")

	return func(c *gin.Context) {
		h := c.Writer.Header()

		if isDocsPath(c.Request.URL.Path, docsPrefix) {
			docs.apply(h)
		} else {
			api.apply(h)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}

		c.Next()
	}
}

// isDocsPath reports whether path is prefix itself or below it.
func isDocsPath(path, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// exposeHeader appends name to Access-Control-Expose-Headers once.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(cur, name):
		h.Set(key, cur+", "+name)
	}
}

// isHTTPS reports whether the request arrived over TLS, directly or through a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
