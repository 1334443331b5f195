package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giadat1599/echo-support-api/internal/middleware"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/internal/service"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

// PluginHandler handles integration endpoints (operator surface only).
type PluginHandler struct {
	service *service.PluginService
	logger  *logger.Logger
}

// NewPluginHandler creates a new plugin handler.
func NewPluginHandler(svc *service.PluginService, log *logger.Logger) *PluginHandler {
	return &PluginHandler{
		service: svc,
		logger:  log,
	}
}

// Upsert handles POST /api/v1/plugins
func (h *PluginHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())

	var req model.UpsertPluginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	plugin, err := h.service.Upsert(r.Context(), orgID, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, plugin)
}

// Get handles GET /api/v1/plugins/{service}
func (h *PluginHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	svc := model.PluginService(chi.URLParam(r, "service"))

	plugin, err := h.service.GetOne(r.Context(), orgID, svc)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, plugin)
}

// Remove handles DELETE /api/v1/plugins/{service}
func (h *PluginHandler) Remove(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	svc := model.PluginService(chi.URLParam(r, "service"))

	if err := h.service.Remove(r.Context(), orgID, svc); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
