package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgo/maestro/internal/config"
	"github.com/forgo/maestro/internal/database"
	"github.com/forgo/maestro/internal/google"
	"github.com/forgo/maestro/internal/handler"
	"github.com/forgo/maestro/internal/linkedin"
	"github.com/forgo/maestro/internal/middleware"
	"github.com/forgo/maestro/internal/orchestrator"
	"github.com/forgo/maestro/internal/repository"
	"github.com/forgo/maestro/internal/scheduler"
	"github.com/forgo/maestro/internal/service"
	"github.com/forgo/maestro/internal/vault"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration. A missing or malformed ENCRYPTION_KEY is
	// fatal here: the process never runs without a working vault.
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	key, err := cfg.Vault.Key()
	if err != nil {
		slog.Error("invalid encryption key", slog.String("error", err.Error()))
		os.Exit(1)
	}
	credentialVault, err := vault.New(key)
	if err != nil {
		slog.Error("failed to initialize vault", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	if err := repository.EnsureSchema(ctx, db); err != nil {
		slog.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	tenantRepo := repository.NewTenantRepository(db)
	crewRepo := repository.NewCrewRepository(db)
	stateRepo := repository.NewOAuthStateRepository(db)
	jobRepo := repository.NewJobRepository(db)
	executionRepo := repository.NewExecutionLogRepository(db)

	// Initialize scheduler; work functions register below
	sched := scheduler.New(scheduler.Config{
		Store:             jobRepo,
		Log:               executionRepo,
		TickInterval:      cfg.Scheduler.TickInterval,
		MaxInstances:      cfg.Scheduler.MaxInstances,
		InvocationTimeout: cfg.Scheduler.InvocationTimeout,
	})

	// Initialize services
	tenantService := service.NewTenantService(service.TenantServiceConfig{
		TenantRepo: tenantRepo,
	})

	credentialService := service.NewCredentialService(service.CredentialServiceConfig{
		Vault:       credentialVault,
		TenantRepo:  tenantRepo,
		RedirectURL: cfg.OAuth.RedirectURL,
		LinkedIn: service.LinkedInDefaults{
			AuthURI:  cfg.OAuth.LinkedInAuthURI,
			TokenURI: cfg.OAuth.LinkedInTokenURI,
		},
	})

	handshakeService := service.NewHandshakeService(service.HandshakeServiceConfig{
		Vault:         credentialVault,
		TenantRepo:    tenantRepo,
		StateRepo:     stateRepo,
		RedirectURL:   cfg.OAuth.RedirectURL,
		GoogleAuthURI: cfg.OAuth.GoogleAuthURI,
	})

	scheduleService := service.NewScheduleService(service.ScheduleServiceConfig{
		TenantRepo:   tenantRepo,
		CrewRepo:     crewRepo,
		JobRepo:      jobRepo,
		ExecutionLog: executionRepo,
		Scheduler:    sched,
	})

	// Initialize provider integrations and the orchestrator
	googleClient := google.NewClient(google.ClientConfig{Tokens: handshakeService})

	orchestrator.New(orchestrator.Config{
		Scheduler: sched,
		CrewRepo:  crewRepo,
		Log:       executionRepo,
		Scorer:    google.NewScorer(googleClient),
		Drafter:   &orchestrator.TemplateDrafter{},
		Mailer:    googleClient,
		Calendar:  google.NewCalendarRunner(googleClient),
		LinkedIn: linkedin.NewContentRunner(linkedin.ContentRunnerConfig{
			Tokens: handshakeService,
		}),
	})

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db)
	tenantHandler := handler.NewTenantHandler(tenantService)
	credentialHandler := handler.NewCredentialHandler(credentialService)
	oauthHandler := handler.NewOAuthHandler(handshakeService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Check)

	mux.HandleFunc("POST /v1/tenants", tenantHandler.Create)
	mux.HandleFunc("GET /v1/tenants/{tenantId}", tenantHandler.Get)

	mux.HandleFunc("POST /v1/tenants/{tenantId}/credentials", credentialHandler.Upload)
	mux.HandleFunc("POST /v1/tenants/{tenantId}/credentials/linkedin", credentialHandler.SaveLinkedIn)
	mux.HandleFunc("GET /v1/tenants/{tenantId}/credentials/status", credentialHandler.Status)

	mux.HandleFunc("GET /v1/tenants/{tenantId}/auth/{provider}", oauthHandler.Begin)
	mux.HandleFunc("POST /v1/tenants/{tenantId}/auth/{provider}/complete", oauthHandler.Complete)

	mux.HandleFunc("POST /v1/tenants/{tenantId}/services", scheduleHandler.Configure)
	mux.HandleFunc("GET /v1/tenants/{tenantId}/jobs", scheduleHandler.ListJobs)
	mux.HandleFunc("GET /v1/tenants/{tenantId}/logs", scheduleHandler.ListLogs)

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start the scheduler scan loop; persisted jobs resume on the first tick
	sched.Start()

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	// Stop the scheduler after the HTTP surface: waits for in-flight jobs
	sched.Stop()

	slog.Info("server exited")
}
