package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sarinfocom/intellij-extra-icons/internal/config"
	apierrors "github.com/sarinfocom/intellij-extra-icons/internal/errors"
	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
	"github.com/sarinfocom/intellij-extra-icons/internal/middleware"
	"github.com/sarinfocom/intellij-extra-icons/internal/websocket"
)

// RouterConfig wires the API to its collaborators
type RouterConfig struct {
	License  LicenseService
	Notifier RefreshBroadcaster
	Icons    IconCatalog
	Settings SettingsRepository

	// Hub serves /ws when set
	Hub *websocket.Hub

	// Telemetry instruments requests; its Prometheus handler serves /metrics
	Telemetry *infrastructure.OTelProviders

	RateLimitRPS   float64
	RateLimitBurst int
	IncludeStack   bool

	Logger *slog.Logger
}

// NewRouter builds the diagnostics API router
func NewRouter(cfg RouterConfig) (chi.Router, error) {
	if cfg.License == nil || cfg.Notifier == nil || cfg.Icons == nil || cfg.Settings == nil {
		return nil, fmt.Errorf("router requires license, notifier, icons and settings")
	}
	logger := infrastructure.WithComponent(cfg.Logger, "http")

	errorHandler := apierrors.NewErrorHandler(logger, cfg.IncludeStack)
	errorMiddleware := apierrors.NewErrorMiddleware(errorHandler, logger)
	validator := middleware.NewValidator()

	otelMiddleware, err := middleware.NewOTelMiddleware(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("http instrumentation: %w", err)
	}

	var clients ClientCounter
	if cfg.Hub != nil {
		clients = cfg.Hub
	}

	health := NewHealthHandler(cfg.License, clients, logger)
	licenseHandler := NewLicenseHandler(cfg.License, errorHandler, logger)
	iconsHandler := NewIconsHandler(cfg.Icons, cfg.Notifier, validator, errorHandler, logger)
	settingsHandler := NewSettingsHandler(cfg.Settings, cfg.Icons, cfg.Notifier, validator, errorHandler, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otelMiddleware.Handler)
	r.Use(errorMiddleware.Handler)
	r.Use(middleware.SecurityHeaders)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, errorHandler, logger).Handler)
		r.Use(middleware.ContentTypeValidator("application/json"))

		r.Get("/health", health.HealthCheck)
		r.Mount("/license", licenseHandler.Routes())
		r.Mount("/icons", iconsHandler.Routes())
		r.Mount("/settings", settingsHandler.Routes())
	})

	if cfg.Telemetry != nil && cfg.Telemetry.PrometheusHTTP != nil {
		r.Method(http.MethodGet, config.MetricsEndpoint, cfg.Telemetry.PrometheusHTTP)
	}

	if cfg.Hub != nil {
		r.Get(config.WebSocketEndpoint, websocket.ServeWS(cfg.Hub, nil, logger))
	}

	return r, nil
}
