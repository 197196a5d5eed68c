package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rufusmd/ai-medical-note-writer/internal/config"
	"github.com/rufusmd/ai-medical-note-writer/internal/domain/feedback"
	"github.com/rufusmd/ai-medical-note-writer/internal/domain/notes"
	"github.com/rufusmd/ai-medical-note-writer/internal/domain/patient"
	"github.com/rufusmd/ai-medical-note-writer/internal/domain/template"
	"github.com/rufusmd/ai-medical-note-writer/internal/domain/transfer"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/ai"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/auth"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/db"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/middleware"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/telemetry"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "notewriter-server",
		Short: "AI clinical note writer API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the note writer API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				applied := "-"
				status := "pending"
				if s.Applied {
					status = "applied"
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, applied)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Telemetry
	tp := telemetry.NewTelemetryProvider(telemetry.TelemetryConfig{
		ServiceName:    "notewriter-server",
		ServiceVersion: version,
		Environment:    cfg.Env,
	})
	defer tp.Shutdown(ctx)

	// AI providers
	var providers []ai.Provider
	if cfg.GeminiAPIKey != "" {
		providers = append(providers, ai.NewGeminiClient(cfg.GeminiAPIKey, logger))
	}
	if cfg.AnthropicAPIKey != "" {
		providers = append(providers, ai.NewClaudeClient(cfg.AnthropicAPIKey, logger))
	}
	manager := ai.NewManager(ai.ManagerConfig{
		PrimaryProvider:  cfg.AIPrimaryProvider,
		FallbackEnabled:  cfg.AIFallbackEnabled,
		QualityThreshold: cfg.AIQualityThreshold,
		RequestTimeout:   cfg.AIRequestTimeout,
	}, logger, providers...)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(tp.TracingMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSecret),
		}))
	}

	// API group
	api := e.Group("/api")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Transcripts and generation payloads are allowed to be larger than the
	// default request body.
	api.Use(middleware.BodyLimit("1M", "5M",
		"/api/notes/transcripts", "/api/notes/generate", "/api/notes/compare", "/api/transfer"))

	// Generation endpoints run under the AI manager's own timeout; everything
	// else gets a short request deadline.
	api.Use(middleware.RequestTimeout(30*time.Second,
		"/api/notes/generate", "/api/notes/compare", "/api/transfer/generate"))

	// Repositories and services
	patientRepo := patient.NewRepo(pool)
	patientSvc := patient.NewService(patientRepo)

	templateRepo := template.NewRepo(pool)
	templateSvc := template.NewService(templateRepo)

	notesRepo := notes.NewRepo(pool)
	notesSvc := notes.NewService(notesRepo, manager, patientSvc, templateSvc, tp, logger)

	feedbackRepo := feedback.NewRepo(pool)
	feedbackSvc := feedback.NewService(feedbackRepo, notesSvc)

	orchestrator := transfer.NewOrchestrator(manager, logger)

	// Handlers
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	template.NewHandler(templateSvc).RegisterRoutes(api)
	notes.NewHandler(notesSvc).RegisterRoutes(api)
	feedback.NewHandler(feedbackSvc).RegisterRoutes(api)
	transfer.NewHandler(orchestrator).RegisterRoutes(api)

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/health/ai", func(c echo.Context) error {
		results := manager.HealthCheck(c.Request().Context())
		out := make(map[string]string, len(results))
		healthy := true
		for name, err := range results {
			if err != nil {
				out[name] = err.Error()
				healthy = false
			} else {
				out[name] = "ok"
			}
		}
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, out)
	})
	e.GET("/metrics", tp.PrometheusHandler())

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
