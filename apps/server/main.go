package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tilsley/repomark/apps/server/internal/convert"
	githubadapter "github.com/tilsley/repomark/apps/server/internal/convert/adapters/github"
	converthandler "github.com/tilsley/repomark/apps/server/internal/convert/handler"
	"github.com/tilsley/repomark/apps/server/internal/convert/store"
	"github.com/tilsley/repomark/apps/server/internal/convert/store/pgmigrations"
	"github.com/tilsley/repomark/apps/server/internal/oauth"
	oauthhandler "github.com/tilsley/repomark/apps/server/internal/oauth/handler"
	oauthstore "github.com/tilsley/repomark/apps/server/internal/oauth/store"
	"github.com/tilsley/repomark/apps/server/internal/platform/config"
	"github.com/tilsley/repomark/apps/server/internal/platform/logger"
	"github.com/tilsley/repomark/apps/server/internal/platform/postgres"
	redisplatform "github.com/tilsley/repomark/apps/server/internal/platform/redis"
	"github.com/tilsley/repomark/apps/server/internal/platform/telemetry"
	"github.com/tilsley/repomark/apps/server/internal/platform/validation"
	"github.com/tilsley/repomark/pkg/api"
	"github.com/tilsley/repomark/schemas"
)

const serviceName = "repomark-server"

func main() {
	slog := logger.New(serviceName)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	tel, err := telemetry.New(ctx, serviceName, cfg.OTelEnabled)
	if err != nil {
		slog.Error("telemetry init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// --- Platform: Postgres (optional conversion event log) ---

	var recorder convert.EventRecorder
	if cfg.PostgresURL != "" {
		pool, err := postgres.Open(ctx, cfg.PostgresURL, pgmigrations.FS)
		if err != nil {
			slog.Error("postgres init failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		recorder = store.NewPGEventStore(pool)
		slog.Info("conversion events recorded to postgres")
	}

	// --- Platform: Redis (optional OAuth state store) ---

	var states oauth.StateStore
	if cfg.RedisAddr != "" {
		rdb, err := redisplatform.Open(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Error("redis init failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		states = oauthstore.NewRedisStateStore(rdb, cfg.OAuth.StateTTL)
	}

	// --- Services ---

	fetcher := githubadapter.New(cfg.GitHubAPIURL, &http.Client{Timeout: cfg.ConversionTimeout})
	svc := convert.NewService(fetcher, recorder, slog, convert.Options{
		DefaultRules: convert.ParseRules(cfg.DefaultExcludes.Types, cfg.DefaultExcludes.Dirs, cfg.DefaultExcludes.Files),
		Timeout:      cfg.ConversionTimeout,
		Concurrency:  cfg.FetchConcurrency,
	})

	oauthSvc := oauth.NewService(oauth.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURL,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
	}, states, slog)

	// --- HTTP ---

	validator, err := validation.New(schemas.OpenAPISpec)
	if err != nil {
		slog.Error("openapi validation middleware init failed", "error", err)
		os.Exit(1)
	}

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), validator)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	})
	converthandler.RegisterRoutes(router, svc, slog)
	oauthhandler.RegisterRoutes(router, oauthSvc, slog)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting repomark",
		"port", cfg.Port,
		"githubApiUrl", cfg.GitHubAPIURL,
		"recording", recorder != nil,
		"oauthStateStore", states != nil,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
