// Package main is the entrypoint for the KnowYourPlant API server.
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

	"github.com/plantscan/plantscan/internal/auth"
	"github.com/plantscan/plantscan/internal/classifier"
	"github.com/plantscan/plantscan/internal/config"
	"github.com/plantscan/plantscan/internal/handler"
	"github.com/plantscan/plantscan/internal/middleware"
	"github.com/plantscan/plantscan/internal/repository"
	"github.com/plantscan/plantscan/internal/server"
	"github.com/plantscan/plantscan/internal/service"
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
	logger.Info("connected to database")

	if err := repo.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
		repo.Close()
		os.Exit(1)
	}

	// A missing or broken model never aborts startup; the classifier comes
	// up degraded and /predict-image reports it per request.
	clf := classifier.Load(classifier.LoadOptions{
		ModelPath:         cfg.ModelPath,
		LabelsPath:        cfg.LabelsPath,
		SharedLibraryPath: cfg.ONNXRuntimeSharedLib,
		AllowParentFallback: cfg.ModelPath == config.DefaultModelPath &&
			cfg.LabelsPath == config.DefaultLabelsPath,
	}, logger)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.TokenTTL())
	if err != nil {
		logger.Error("failed to configure token signing", "error", err)
		repo.Close()
		os.Exit(1)
	}

	google := auth.NewGoogleVerifier(cfg.GoogleClientID)

	authService := service.NewAuthService(repo, tokens, google, logger)
	scanService := service.NewScanService(repo, logger)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, clf)
	authHandler := handler.NewAuthHandler(authService, logger)
	predictHandler := handler.NewPredictHandler(clf, scanService, logger)
	historyHandler := handler.NewHistoryHandler(scanService, logger)

	r := setupRouter(h, healthHandler, authHandler, predictHandler, historyHandler, authService, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("database", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("classifier", func(ctx context.Context) error {
		return clf.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"model_loaded", clf.Ready(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
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
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	predictHandler *handler.PredictHandler,
	historyHandler *handler.HistoryHandler,
	authService *service.AuthService,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:  cfg.IsDevelopment(),
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
	}))

	// Health endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Root)

	authCfg := middleware.AuthConfig{
		Logger: logger,
		Users:  authService,
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleLogin)
			r.With(middleware.RequireAuth(authCfg)).Get("/me", authHandler.Me)
		})

		r.With(middleware.RequireAuth(authCfg)).Get("/history", historyHandler.List)
	})

	// Public; a valid bearer token additionally records the scan in history.
	r.With(
		middleware.OptionalAuth(authCfg),
		middleware.MaxBodySize(cfg.MaxUploadSize),
	).Post("/predict-image", predictHandler.Predict)

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

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
