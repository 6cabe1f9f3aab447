package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	apierrors "github.com/sarinfocom/intellij-extra-icons/internal/errors"
	"github.com/sarinfocom/intellij-extra-icons/internal/license"
	api "github.com/sarinfocom/intellij-extra-icons/pkg/contracts/api/v1"
)

// LicenseHandler exposes the license gate
type LicenseHandler struct {
	service      LicenseService
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(service LicenseService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "license")),
	}
}

// Routes returns a chi router for license endpoints
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetStatus)
	r.Post("/check", h.Check)
	return r
}

// GetStatus handles GET /api/license
func (h *LicenseHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, toLicenseResponse(h.service.Status()))
}

// Check handles POST /api/license/check
func (h *LicenseHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("extra-icons/http").Start(r.Context(), "license_handler.check")
	defer span.End()

	verdict, err := h.service.Tick(ctx)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, license.ErrNotScheduled) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				apierrors.ErrLicenseCheckNotScheduled.StatusCode,
				apierrors.ErrLicenseCheckNotScheduled.ErrorCode,
				apierrors.ErrLicenseCheckNotScheduled.Message,
				map[string]string{"state": string(h.service.Status().State)},
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("license.verdict", verdict.String()))

	h.logger.InfoContext(ctx, "On-demand license check",
		slog.String("verdict", verdict.String()))

	render.JSON(w, r, api.LicenseCheckResponse{
		Verdict:   verdict.String(),
		Activated: h.service.Status().Activated,
	})
}

func toLicenseResponse(s license.Status) api.LicenseResponse {
	resp := api.LicenseResponse{
		PluginType:  s.PluginType,
		ProductCode: s.ProductCode,
		Activated:   s.Activated,
		State:       string(s.State),
		DelayMS:     s.DelayMS,
		PeriodMS:    s.PeriodMS,
		Checks:      s.Checks,
		LastCheck:   s.LastCheck,
		NextCheck:   s.NextCheck,
		Error:       s.Error,
	}
	if s.LastVerdict != nil {
		resp.LastVerdict = s.LastVerdict.String()
	}
	return resp
}
