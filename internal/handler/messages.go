package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/giadat1599/echo-support-api/internal/middleware"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/internal/service"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

// MessageHandler handles message endpoints on both surfaces.
type MessageHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// CreateForWidget handles POST /api/v1/widget/messages
func (h *MessageHandler) CreateForWidget(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := middleware.ValidatePrompt(req.Prompt); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.service.CreateFromContact(r.Context(), &req); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ListForWidget handles GET /api/v1/widget/messages
func (h *MessageHandler) ListForWidget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := h.service.ListForContact(
		r.Context(),
		q.Get("thread_id"),
		q.Get("contact_session_id"),
		q.Get("cursor"),
		parseLimit(q.Get("limit")),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Create handles POST /api/v1/messages (operator path).
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())

	var req model.OperatorMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := middleware.ValidatePrompt(req.Prompt); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.service.CreateFromOperator(r.Context(), orgID, &req); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// List handles GET /api/v1/messages (operator path).
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	q := r.URL.Query()

	page, err := h.service.ListForOperator(
		r.Context(),
		orgID,
		q.Get("thread_id"),
		q.Get("cursor"),
		parseLimit(q.Get("limit")),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Enhance handles POST /api/v1/messages/enhance (operator path).
func (h *MessageHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	var req model.EnhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	resp, err := h.service.Enhance(r.Context(), req.Prompt)
	if err != nil {
		h.logger.Error("failed to enhance response")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
		return parsed
	}
	return 0
}
