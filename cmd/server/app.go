package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/muselang/progression-api/internal/api"
	apimiddleware "github.com/muselang/progression-api/internal/api/middleware"
	"github.com/muselang/progression-api/internal/config"
	"github.com/muselang/progression-api/internal/platform/postgres"
	"github.com/muselang/progression-api/internal/progression"
	"github.com/muselang/progression-api/internal/service"
	"github.com/muselang/progression-api/internal/service/auth"
)

// application holds the wired dependencies of the running server.
type application struct {
	config             *config.Config
	logger             *slog.Logger
	db                 *sql.DB
	jwtService         auth.JWTService
	progressionService service.ProgressionService
}

// newApplication builds the dependency graph: database, engine, stores, and
// services. Fails fast on any unreachable or misconfigured dependency.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*application, error) {
	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	engine := progression.NewEngine(
		cfg.Progression.Catalog(),
		nil,
		cfg.Progression.DedupeRetentionDays,
		logger,
	)
	learnerStore := postgres.NewPostgresLearnerStore(db, logger)
	progressionService := service.NewProgressionService(engine, learnerStore, service.SystemClock{}, logger)

	return &application{
		config:             cfg,
		logger:             logger,
		db:                 db,
		jwtService:         jwtService,
		progressionService: progressionService,
	}, nil
}

// openDatabase connects to postgres and verifies the connection.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	progressionHandler := api.NewProgressionHandler(app.progressionService, app.logger)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/learners/{learnerID}", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/events", progressionHandler.SubmitEvent)
			r.Get("/progress", progressionHandler.GetProgress)
			r.Get("/reviews/due", progressionHandler.GetDueItems)
			r.Get("/challenges", progressionHandler.GetChallenges)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.db.PingContext(r.Context()); err != nil {
			app.logger.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

// startHTTPServer starts the HTTP server and blocks until a shutdown signal
// or context cancellation, then drains in-flight requests.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error("server failed", "error", err)
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		app.logger.Info("shutting down server...")
	case <-serverCtx.Done():
		app.logger.Info("server context canceled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("server shutdown completed")
	return nil
}

// cleanup releases held resources.
func (app *application) cleanup() {
	closeQuietly(app.db, app.logger)
}

func closeQuietly(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database connection", "error", err)
	}
}
