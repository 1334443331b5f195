package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giadat1599/echo-support-api/internal/middleware"
	"github.com/giadat1599/echo-support-api/internal/service"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

// maxUploadBytes caps one knowledge upload.
const maxUploadBytes = 25 << 20 // 25MB

// FileHandler handles knowledge file endpoints (operator surface only).
type FileHandler struct {
	service *service.FileService
	logger  *logger.Logger
}

// NewFileHandler creates a new file handler.
func NewFileHandler(svc *service.FileService, log *logger.Logger) *FileHandler {
	return &FileHandler{
		service: svc,
		logger:  log,
	}
}

// Upload handles POST /api/v1/files (multipart form, field "file").
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeBadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeBadRequest(w, "failed to read file")
		return
	}

	resp, err := h.service.AddFile(r.Context(), orgID, &service.AddFileRequest{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Bytes:    data,
		Category: r.FormValue("category"),
	})
	if err != nil {
		h.logger.Error("file upload failed")
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if !resp.Created {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// List handles GET /api/v1/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())

	files, err := h.service.List(r.Context(), orgID, r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("failed to list files")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// Delete handles DELETE /api/v1/files/{id}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	entryID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(entryID); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.service.DeleteFile(r.Context(), orgID, entryID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
