// Package app wires configuration, stores, services and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/todoauth/internal/todo/http"
	"github.com/aussiebroadwan/todoauth/internal/todo/metrics"
	"github.com/aussiebroadwan/todoauth/internal/todo/service"
	"github.com/aussiebroadwan/todoauth/internal/todo/store"
	"github.com/aussiebroadwan/todoauth/internal/todo/store/drivers/memory"
	"github.com/aussiebroadwan/todoauth/internal/todo/store/drivers/sqlite"
	"github.com/aussiebroadwan/todoauth/pkg/cryptox"
	"github.com/aussiebroadwan/todoauth/pkg/jwtx"
	"github.com/aussiebroadwan/todoauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the todo service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	directory store.Directory
	registry  *memory.Registry
	issuer    *jwtx.Issuer
	metrics   *metrics.Metrics

	// Services
	sessionService      *service.SessionService
	todoService         *service.TodoService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "todoauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	if cfg.SecretFromDefault {
		app.logger.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	issuer, err := jwtx.NewIssuer([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	app.issuer = issuer

	if err := app.initDirectory(context.Background()); err != nil {
		return nil, err
	}

	app.registry = memory.NewRegistry(memory.WithTTL(cfg.RefreshTokenTTL))
	app.metrics.TrackRegistrySize(app.registry.Len)

	app.initServices()
	if err := app.initHTTP(); err != nil {
		_ = app.directory.Close()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("todoauth starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"user_store", app.cfg.UserStore,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.directory.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down todoauth...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.directory.Close(); err != nil {
		app.logger.Error("error closing directory", "error", err)
		return err
	}

	app.logger.Info("todoauth stopped")
	return nil
}

// Handler is the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// initDirectory opens the credential directory and seeds the demo users.
func (app *Application) initDirectory(ctx context.Context) error {
	switch app.cfg.UserStore {
	case UserStoreMemory, "":
		app.directory = memory.NewDirectory()

	case UserStoreSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
		app.directory = db

	default:
		return fmt.Errorf("unknown USER_STORE %q", app.cfg.UserStore)
	}

	if !app.cfg.SeedDemoUsers {
		return nil
	}

	hasher := cryptox.Hasher{Pepper: app.cfg.PasswordPepper}
	if err := service.SeedDirectory(ctx, app.directory, hasher, service.DemoUsers, app.logger); err != nil {
		_ = app.directory.Close()
		return fmt.Errorf("failed to seed users: %w", err)
	}
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Tokens:     app.issuer,
		Directory:  app.directory,
		Registry:   app.registry,
		Hasher:     cryptox.Hasher{Pepper: app.cfg.PasswordPepper},
		Metrics:    app.metrics,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.todoService = &service.TodoService{Directory: app.directory}

	app.housekeepingService = service.NewHousekeepingService(
		app.registry,
		app.metrics,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() error {
	router := httpapi.NewRouter(BuildVersion, httpapi.DefaultCORS(app.cfg.CORSOrigin), app.logger)

	router.Sessions = app.sessionService
	router.Todos = app.todoService
	router.Directory = app.directory
	router.Registry = app.registry
	router.Metrics = app.metrics
	router.CookieSecure = app.cfg.CookieSecure
	router.LoginLimit = app.cfg.LoginLimit
	router.RequestLimit = app.cfg.RequestLimit
	if err := router.ApplyRoutes(); err != nil {
		return fmt.Errorf("failed to build routes: %w", err)
	}

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
