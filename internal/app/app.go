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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"vstoxxcli/internal/config"
	apierrors "vstoxxcli/internal/errors"
	"vstoxxcli/internal/infrastructure"
	customMiddleware "vstoxxcli/internal/middleware"
	"vstoxxcli/internal/services"
	httphandlers "vstoxxcli/internal/transport/http"
)

// AppName is reported in startup logs
const AppName = "VSTOXX Service"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Build         services.BuildInfo
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, build services.BuildInfo) (*Application, error) {
	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelCfg.ServiceVersion = build.Version
	return newApplication(ctx, cfg, logger, build, otelCfg)
}

func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, build services.BuildInfo, otelCfg *infrastructure.OTelConfig) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", build.Version))

	otelProviders, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	container, err := NewServiceContainer(ctx, cfg, build, otelProviders, logger)
	if err != nil {
		_ = otelProviders.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		Services:      container,
		OTelProviders: otelProviders,
		Build:         build,
	}

	if err := app.setupRouter(); err != nil {
		container.Close()
		_ = otelProviders.Shutdown(ctx)
		return nil, err
	}

	app.createServer()
	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Level == "debug")

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create HTTP telemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(errorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.RateLimit.RPS,
			a.Config.RateLimit.Burst,
			errorHandler,
			a.Logger,
		).Handler)
	}

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.setupAPIRoutes(r, errorHandler)
	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	healthHandler := httphandlers.NewHealthHandler(a.Services.Health, a.Logger)
	vstoxxHandler := httphandlers.NewVSTOXXHandler(a.Services.Index, a.Services.Results, a.Logger, errorHandler)
	settlementHandler := httphandlers.NewSettlementHandler(a.Services.Index, a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Route("/v1", func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Compute.Timeout))
			r.Use(customMiddleware.MaxBodySize(a.Config.Server.MaxBodyBytes))
			r.Use(customMiddleware.ContentType(errorHandler, "application/json", "text/csv"))

			r.Mount("/vstoxx", vstoxxHandler.Routes())
			r.Mount("/settlements", settlementHandler.Routes())
		})
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server in the background. A listener failure
// cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", a.Build.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_dir", a.Services.Paths.DataDir),
		slog.Bool("store_enabled", a.Services.Index.StoreEnabled()))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.Services.Close()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or the
// listener fails
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")

	return a.Stop(ctx)
}
