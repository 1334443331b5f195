package handler

import (
	"encoding/json"
	"net/http"

	"github.com/giadat1599/echo-support-api/internal/middleware"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/internal/service"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

// SessionHandler handles the widget bootstrap endpoints: organization
// validation and contact session creation.
type SessionHandler struct {
	sessions      *service.SessionService
	organizations *service.OrganizationService
	logger        *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *service.SessionService, organizations *service.OrganizationService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:      sessions,
		organizations: organizations,
		logger:        log,
	}
}

// ValidateOrganization handles POST /api/v1/widget/organizations/validate
func (h *SessionHandler) ValidateOrganization(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	resp, err := h.organizations.Validate(r.Context(), req.OrganizationID)
	if err != nil {
		h.logger.Error("failed to validate organization")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/v1/widget/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := middleware.ValidateOrganizationID(req.OrganizationID); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	session, err := h.sessions.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"contact_session_id": session.ID,
	})
}
