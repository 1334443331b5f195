package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/giadat1599/echo-support-api/internal/middleware"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/internal/service"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

// ConversationHandler handles conversation endpoints on both surfaces.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// CreateForWidget handles POST /api/v1/widget/conversations
func (h *ConversationHandler) CreateForWidget(w http.ResponseWriter, r *http.Request) {
	var req model.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	id, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"conversation_id": id})
}

// GetForWidget handles GET /api/v1/widget/conversations/{id}
func (h *ConversationHandler) GetForWidget(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(conversationID); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	contactSessionID := r.URL.Query().Get("contact_session_id")

	view, err := h.service.GetOneForSession(r.Context(), conversationID, contactSessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Get handles GET /api/v1/conversations/{id} (operator path).
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	view, err := h.service.GetOneForOperator(r.Context(), orgID, conversationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// List handles GET /api/v1/conversations (operator path).
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())

	var status *model.ConversationStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := model.ConversationStatus(s)
		status = &st
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	page, err := h.service.List(r.Context(), orgID, status, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		h.logger.Error("failed to list conversations")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// UpdateStatus handles PUT /api/v1/conversations/{id}/status (operator path).
func (h *ConversationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req model.UpdateConversationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	view, err := h.service.UpdateStatus(r.Context(), orgID, conversationID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
