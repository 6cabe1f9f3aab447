package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/sarinfocom/intellij-extra-icons/internal/license"
	"github.com/sarinfocom/intellij-extra-icons/pkg/contracts"
	api "github.com/sarinfocom/intellij-extra-icons/pkg/contracts/api/v1"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	license LicenseService
	clients ClientCounter
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler. clients may be nil.
func NewHealthHandler(license LicenseService, clients ClientCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		license: license,
		clients: clients,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health. A failed license scheduler reports
// degraded but still answers 200: icons keep working while it is down.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.license.Status()

	resp := api.HealthResponse{
		Status:    "ok",
		Version:   contracts.Version,
		License:   string(status.State),
		Timestamp: time.Now().UTC(),
	}
	if status.State == license.StateFailed {
		resp.Status = "degraded"
	}
	if h.clients != nil {
		resp.Clients = h.clients.ClientCount()
	}

	render.JSON(w, r, resp)
}
