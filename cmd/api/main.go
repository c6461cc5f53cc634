// Package main is the entrypoint for the Menagerie API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/menagerie/menagerie/internal/auth"
	"github.com/menagerie/menagerie/internal/cache"
	"github.com/menagerie/menagerie/internal/config"
	"github.com/menagerie/menagerie/internal/handler"
	"github.com/menagerie/menagerie/internal/middleware"
	"github.com/menagerie/menagerie/internal/repository"
	"github.com/menagerie/menagerie/internal/server"
	"github.com/menagerie/menagerie/internal/service"
	"github.com/menagerie/menagerie/migrations"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	if err := repo.EnsureSchema(ctx, migrations.FS); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	issuer, err := auth.NewTokenIssuer(cfg.SecretKey, cfg.TokenAlgorithm, cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to configure token signing", "error", err)
		os.Exit(1)
	}

	animalService := service.NewAnimalService(repo)
	authService := service.NewAuthService(service.AuthConfig{
		Issuer:        issuer,
		Username:      cfg.AdminUsername,
		Password:      cfg.AdminPassword,
		Keys:          repo,
		Cache:         cacheClient,
		KeyDefaultTTL: cfg.APIKeyDefaultTTL,
	})

	// One-time seed of the demo residents, only when the table is empty.
	seeded, err := animalService.Preload(ctx)
	if err != nil {
		logger.Error("failed to preload animals", "error", err)
		os.Exit(1)
	}
	if seeded {
		logger.Info("preloaded seed animals")
	}

	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	indexHandler := handler.NewIndexHandler(animalService, logger)
	animalHandler := handler.NewAnimalHandler(animalService, logger)
	authHandler := handler.NewAuthHandler(authService, logger)

	r := setupRouter(healthHandler, indexHandler, animalHandler, authHandler, authService, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	healthHandler *handler.HealthHandler,
	indexHandler *handler.IndexHandler,
	animalHandler *handler.AnimalHandler,
	authHandler *handler.AuthHandler,
	authService *service.AuthService,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Server-rendered listing page
	r.Get("/", indexHandler.Index)

	// Login
	r.Post("/token/", authHandler.Token)

	// Animal CRUD
	r.Post("/animals/", animalHandler.Create)
	r.Get("/animals/", animalHandler.List)
	r.Put("/animals/{id}", animalHandler.Update)
	r.Delete("/animals/{id}", animalHandler.Delete)
	r.Post("/upsert/", animalHandler.Upsert)

	// API-key protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyGate(authService, logger))
		r.Get("/secure-data/", authHandler.SecureData)
	})

	// Key administration, gated by the registry admin secret
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RequireAdminSecret(cfg.APIKeyAdminSecret, logger))
		r.Post("/keys", authHandler.CreateKey)
		r.Get("/keys", authHandler.ListKeys)
		r.Delete("/keys/{id}", authHandler.RevokeKey)
		r.Post("/keys/{id}/renew", authHandler.RenewKey)
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
