package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newSecurityEngine(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.NoRoute(func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r *gin.Engine, req *http.Request) http.Header {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_APIAndDocsPaths(t *testing.T) {
	r := newSecurityEngine(SecurityOptions{NoStore: true, EnablePolicy: true, DocsPrefix: "/api/docs/"})

	tests := []struct {
		path    string
		csp     string
		noStore bool
	}{
		{"/api/exception-logs", apiCSP, true},
		{"/health", apiCSP, true},
		{"/api/docs", docsCSP, false},
		{"/api/docs/index.html", docsCSP, false},
		{"/api/docs/doc.json", docsCSP, false},
		{"/api/docsearch", apiCSP, true}, // prefix match stops at a segment boundary
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			h := serve(r, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if h.Get("X-Content-Type-Options") != "nosniff" ||
				h.Get("X-Frame-Options") != "DENY" ||
				h.Get("Referrer-Policy") != "no-referrer" ||
				h.Get("X-Permitted-Cross-Domain-Policies") != "none" ||
				h.Get("Permissions-Policy") == "" {
				t.Fatalf("baseline headers missing: %#v", h)
			}
			if got := h.Get("Content-Security-Policy"); got != tt.csp {
				t.Fatalf("CSP = %q; want %q", got, tt.csp)
			}
			gotNoStore := h.Get("Cache-Control") == "no-store" && h.Get("Pragma") == "no-cache" && h.Get("Expires") == "0"
			if gotNoStore != tt.noStore {
				t.Fatalf("no-store = %v; want %v (%#v)", gotNoStore, tt.noStore, h)
			}
		})
	}
}

func TestSecurityHeaders_OptionalHeadersOff(t *testing.T) {
	h := serve(newSecurityEngine(SecurityOptions{}), httptest.NewRequest(http.MethodGet, "/api/docs/index.html", nil))

	// without DocsPrefix every path is API
	if h.Get("Content-Security-Policy") != apiCSP {
		t.Fatalf("CSP = %q", h.Get("Content-Security-Policy"))
	}
	for _, k := range []string{"Permissions-Policy", "X-Permitted-Cross-Domain-Policies", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if v := h.Get(k); v != "" {
			t.Fatalf("unexpected %s: %q", k, v)
		}
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	tests := []struct {
		name   string
		maxAge time.Duration
		setup  func(*http.Request)
		want   string
	}{
		{"plain http", time.Hour, func(*http.Request) {}, ""},
		{"tls", 24 * time.Hour, func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, "max-age=86400; includeSubDomains; preload"},
		{"proxy default age", 0, func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") }, "max-age=15552000; includeSubDomains; preload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSecurityEngine(SecurityOptions{EnableHSTS: true, HSTSMaxAge: tt.maxAge})
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			tt.setup(req)
			if got := serve(r, req).Get("Strict-Transport-Security"); got != tt.want {
				t.Fatalf("HSTS = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{"empty", "", "X-Request-ID"},
		{"append", "Content-Length", "Content-Length, X-Request-ID"},
		{"no duplicate", "X-Request-ID, Content-Length", "X-Request-ID, Content-Length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pre := func(c *gin.Context) {
				if tt.existing != "" {
					c.Header("Access-Control-Expose-Headers", tt.existing)
				}
				c.Next()
			}
			r := newSecurityEngine(SecurityOptions{}, RequestID(), pre)
			h := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
			if got := h.Get("Access-Control-Expose-Headers"); got != tt.want {
				t.Fatalf("expose = %q; want %q", got, tt.want)
			}
		})
	}
}

func Test_isDocsPath(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         bool
	}{
		{"/api/docs", "/api/docs", true},
		{"/api/docs/", "/api/docs", true},
		{"/api/docs/swagger-ui.css", "/api/docs", true},
		{"/api/docsx", "/api/docs", false},
		{"/api", "/api/docs", false},
		{"/api/docs", "", false},
	}
	for _, tt := range tests {
		if got := isDocsPath(tt.path, tt.prefix); got != tt.want {
			t.Fatalf("isDocsPath(%q, %q) = %v; want %v", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func Test_isHTTPS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(req) {
		t.Fatalf("plain HTTP should not be https")
	}
	req.Header.Set("X-Forwarded-Proto", "https")
	if !isHTTPS(req) {
		t.Fatalf("X-Forwarded-Proto=https should be https")
	}
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.TLS = &tls.ConnectionState{}
	if !isHTTPS(req2) {
		t.Fatalf("TLS request should be https")
	}
}
