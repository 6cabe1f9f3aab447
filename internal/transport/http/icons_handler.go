package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/sarinfocom/intellij-extra-icons/internal/errors"
	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
	"github.com/sarinfocom/intellij-extra-icons/internal/middleware"
	api "github.com/sarinfocom/intellij-extra-icons/pkg/contracts/api/v1"
)

// IconsHandler serves icon lookups and refresh requests
type IconsHandler struct {
	catalog      IconCatalog
	refresher    RefreshBroadcaster
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewIconsHandler creates a new icons handler
func NewIconsHandler(catalog IconCatalog, refresher RefreshBroadcaster, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *IconsHandler {
	return &IconsHandler{
		catalog:      catalog,
		refresher:    refresher,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "icons")),
	}
}

// Routes returns a chi router for icon endpoints
func (h *IconsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Post("/refresh", h.Refresh)
	return r
}

// Get handles GET /api/icons. With ?file= it looks up one icon, otherwise it
// lists every model.
func (h *IconsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("file") {
		h.List(w, r)
		return
	}
	h.Lookup(w, r)
}

// Lookup handles GET /api/icons?file=NAME
func (h *IconsHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	req := api.IconLookupRequest{File: r.URL.Query().Get("file")}
	if req.File == "" {
		h.errorHandler.HandleError(w, r, apierrors.MissingParameter("file"))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := api.IconLookupResponse{File: req.File}
	if model, ok := h.catalog.Icon(req.File); ok {
		resp.Matched = true
		resp.ModelID = model.ID
		resp.Icon = model.Icon
	}

	render.JSON(w, r, resp)
}

// List handles GET /api/icons
func (h *IconsHandler) List(w http.ResponseWriter, r *http.Request) {
	enabled := make(map[string]struct{})
	for _, m := range h.catalog.Models() {
		enabled[m.ID] = struct{}{}
	}

	all := h.catalog.All()
	models := make([]api.IconModel, 0, len(all))
	for _, m := range all {
		_, on := enabled[m.ID]
		models = append(models, api.IconModel{ID: m.ID, Icon: m.Icon, Enabled: on})
	}

	render.JSON(w, r, models)
}

// Refresh handles POST /api/icons/refresh
func (h *IconsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := infrastructure.EnsureTraceID(r.Context())
	subscribers := h.refresher.Len()

	h.refresher.TriggerAllIconsRefreshAndIconEnablersReinit(ctx)

	h.logger.InfoContext(ctx, "Icon refresh requested over HTTP",
		slog.Int("subscribers", subscribers))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.RefreshResponse{Subscribers: subscribers})
}
