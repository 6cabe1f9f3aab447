package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/sarinfocom/intellij-extra-icons/internal/errors"
	"github.com/sarinfocom/intellij-extra-icons/internal/icons"
	"github.com/sarinfocom/intellij-extra-icons/internal/middleware"
	api "github.com/sarinfocom/intellij-extra-icons/pkg/contracts/api/v1"
)

// SettingsHandler reads and replaces the user icon settings
type SettingsHandler struct {
	store        SettingsRepository
	catalog      IconCatalog
	refresher    RefreshBroadcaster
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store SettingsRepository, catalog IconCatalog, refresher RefreshBroadcaster, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:        store,
		catalog:      catalog,
		refresher:    refresher,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "settings")),
	}
}

// Routes returns a chi router for settings endpoints
func (h *SettingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Put("/", h.Update)
	return r
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, toSettingsResponse(h.store.Settings()))
}

// Update handles PUT /api/settings. Saving broadcasts a refresh so the new
// model list is picked up right away.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req api.SettingsUpdateRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	known := make(map[string]struct{})
	for _, m := range h.catalog.All() {
		known[m.ID] = struct{}{}
	}
	var unknown []apierrors.ValidationError
	for _, id := range req.DisabledModelIDs {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, apierrors.ValidationError{
				Field:   "disabled_model_ids",
				Message: "unknown icon model " + id,
			})
		}
	}
	if len(unknown) > 0 {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"UNKNOWN_ICON_MODEL",
			"Unknown icon model",
			apierrors.ValidationErrors{Errors: unknown},
		))
		return
	}

	settings := icons.Settings{
		DisabledModelIDs: req.DisabledModelIDs,
		Locale:           req.Locale,
	}
	if err := h.store.Save(settings); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewStorageError("save settings", err))
		return
	}

	h.logger.InfoContext(r.Context(), "Icon settings updated",
		slog.Int("disabled_models", len(settings.DisabledModelIDs)),
		slog.String("locale", settings.Locale))

	h.refresher.TriggerAllIconsRefreshAndIconEnablersReinit(r.Context())

	render.JSON(w, r, toSettingsResponse(h.store.Settings()))
}

func toSettingsResponse(s icons.Settings) api.SettingsResponse {
	ids := s.DisabledModelIDs
	if ids == nil {
		ids = []string{}
	}
	return api.SettingsResponse{DisabledModelIDs: ids, Locale: s.Locale}
}
