// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, exception handling, metrics,
// CORS, security headers, API-key authentication, and rate limiting.
//
// Every failure raised on the way (guards, rate limiter, 404/405 fallbacks,
// handler errors, panics) is rendered by the exception filter, so clients see
// a single error shape.
package httpapi

import (
	"context"
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-api-boilerplate/internal/config"
	"github.com/tbourn/go-api-boilerplate/internal/domain"
	"github.com/tbourn/go-api-boilerplate/internal/exceptions"
	"github.com/tbourn/go-api-boilerplate/internal/http/handlers"
	"github.com/tbourn/go-api-boilerplate/internal/http/middleware"
	"github.com/tbourn/go-api-boilerplate/internal/logger"
	"github.com/tbourn/go-api-boilerplate/internal/repo"
	"github.com/tbourn/go-api-boilerplate/internal/services"
)

// exceptionLogRepoShim adapts the repository free functions to the
// services.ExceptionLogRepo interface expected by the ExceptionLogService.
// This keeps services decoupled from the concrete repo package while reusing
// existing functions.
type exceptionLogRepoShim struct{}

// CreateExceptionLog proxies repo.CreateExceptionLog.
func (exceptionLogRepoShim) CreateExceptionLog(ctx context.Context, db *gorm.DB, rec *domain.ExceptionLog) error {
	return repo.CreateExceptionLog(ctx, db, rec)
}

// GetExceptionLog proxies repo.GetExceptionLog.
func (exceptionLogRepoShim) GetExceptionLog(ctx context.Context, db *gorm.DB, id string) (*domain.ExceptionLog, error) {
	return repo.GetExceptionLog(ctx, db, id)
}

// CountExceptionLogs proxies repo.CountExceptionLogs.
func (exceptionLogRepoShim) CountExceptionLogs(ctx context.Context, db *gorm.DB, f repo.ExceptionLogFilter) (int64, error) {
	return repo.CountExceptionLogs(ctx, db, f)
}

// ListExceptionLogsPage proxies repo.ListExceptionLogsPage.
func (exceptionLogRepoShim) ListExceptionLogsPage(ctx context.Context, db *gorm.DB, f repo.ExceptionLogFilter, offset, limit int) ([]domain.ExceptionLog, error) {
	return repo.ListExceptionLogsPage(ctx, db, f, offset, limit)
}

// NewExceptionLogService returns the service backing both the logger's sink
// and the exception-log endpoints.
func NewExceptionLogService(db *gorm.DB) *services.ExceptionLogService {
	return services.NewExceptionLogService(db, exceptionLogRepoShim{})
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), exception handling,
// rate limiting, CORS and security headers, the health and metrics endpoints,
// optional Swagger UI, and the admin exception-log API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: request-scoped logger (platform key; user id once authenticated)
//  4. RedactingLogger: the single access log line, with PII scrubbing
//  5. Metrics
//  6. CORS and Security headers
//  7. ExceptionFilter: panics and c.Errors become the uniform error body
//  8. Body size limiter
//  9. Rate limiter (per client IP)
//
// Everything that observes the final status (logs, metrics) or sets response
// headers runs outside the exception filter, so error responses are logged,
// counted and hardened like any other.
func RegisterRoutes(r *gin.Engine, logs handlers.ExceptionLogReader, lg *logger.Logger, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	pipeline := exceptions.NewPipeline(
		lg.Named(exceptions.PipelineContext),
		exceptions.WithEscalator(exceptions.NewEscalator(cfg.EscalationMarkers...)),
	)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Request-scoped logger for guards and handlers (writes no access line)
	r.Use(middleware.Logger())

	// 4) The one access line per request, with redaction (X-API-Key is always masked)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 5) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6) CORS posture (safe defaults: allow all if none configured)
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.APIKeyHeader, middleware.PlatformKeyHeader},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		corsCfg.AllowAllOrigins = true
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Security headers: lock-down CSP for JSON, Swagger-compatible CSP under
	// the docs prefix, HSTS only when enabled and the request is HTTPS
	docsPrefix := path.Join("/", cfg.APIBasePath, "docs")
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
		DocsPrefix:   docsPrefix,
	}))

	// 7) Every failure below this point is rendered here
	r.Use(middleware.ExceptionFilter(pipeline))

	// 8) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, exceptions.NotFound(handlers.MsgRouteNotFound))
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, exceptions.MethodNotAllowed(handlers.MsgMethodNotAllowed))
	})

	h := handlers.New(logs)

	// Liveness/health, outside the base path for probes
	r.GET("/health", h.Health)

	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api"
	{
		api.GET("/", h.Health)

		if cfg.SwaggerEnabled {
			r.GET(docsPrefix+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		}

		admin := api.Group("/exception-logs",
			middleware.APIKeyGuard(cfg.Auth.KeyRoles()),
			middleware.RequireRoles(config.AdminRole),
		)
		admin.GET("", h.ListExceptionLogs)
		admin.GET("/:id", h.GetExceptionLog)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
