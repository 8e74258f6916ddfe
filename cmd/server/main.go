// Command server runs the HTTP API: uniform exception handling, structured
// logging with Telegram alerts and SQLite persistence, and the admin
// exception-log endpoints.
//
// @title                      Go API Boilerplate
// @version                    1.0
// @description                Uniform error handling, structured logging with alerting, and an admin API over persisted exception logs.
// @BasePath                   /api
// @securityDefinitions.apikey ApiKeyAuth
// @in                         header
// @name                       X-API-Key
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-api-boilerplate/docs"
	"github.com/tbourn/go-api-boilerplate/internal/config"
	httpapi "github.com/tbourn/go-api-boilerplate/internal/http"
	"github.com/tbourn/go-api-boilerplate/internal/logger"
	"github.com/tbourn/go-api-boilerplate/internal/notify"
	"github.com/tbourn/go-api-boilerplate/internal/observability"
	"github.com/tbourn/go-api-boilerplate/internal/repo"
	"github.com/tbourn/go-api-boilerplate/internal/sysutil"
)

// version is set at link time: -ldflags "-X main.version=1.2.3".
var version string

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = sysutil.NewConsole(os.Stdout, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ver := sysutil.Version(version)
	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.Instrument(db); err != nil {
		log.Fatal().Err(err).Msg("instrument database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	svc := httpapi.NewExceptionLogService(db)
	tg := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
		notify.WithBaseURL(cfg.Telegram.APIBase),
		notify.WithTimeout(cfg.Telegram.Timeout),
	)
	if !cfg.Telegram.Enabled() {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID is not set; alerts will not be delivered")
	}
	lg := logger.New(log.Logger,
		logger.WithSink(svc),
		logger.WithNotifier(tg),
		logger.WithTimeout(cfg.FanoutTimeout),
	)
	boot := lg.Named("Bootstrap")

	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	httpapi.RegisterRoutes(r, svc, lg, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		boot.Info(ctx, "Server listening", logger.Payload{
			Context: "Bootstrap",
			Metadata: map[string]any{
				"addr":     srv.Addr,
				"basePath": cfg.APIBasePath,
				"version":  ver,
				"swagger":  cfg.SwaggerEnabled,
			},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			boot.Fatal(context.Background(), "Server failed", logger.Payload{
				Context: "Bootstrap",
				Cause:   err,
				Options: logger.Options{SendAlert: true},
			})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	// Alerts and persisted records still in flight finish before the DB closes.
	lg.Wait()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("server stopped")
}
