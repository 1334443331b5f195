package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giadat1599/echo-support-api/internal/apierror"
	"github.com/giadat1599/echo-support-api/internal/blob"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/pkg/logger"
	"github.com/giadat1599/echo-support-api/pkg/metrics"
)

// TextExtractor turns uploaded bytes into indexable text. The production
// pipeline runs externally; this is its contract.
type TextExtractor interface {
	Extract(ctx context.Context, filename, mimeType string, data []byte) (string, error)
}

// PlainTextExtractor handles text-family uploads directly.
type PlainTextExtractor struct{}

// Extract returns the bytes as text for text-family MIME types.
func (PlainTextExtractor) Extract(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	base := mimeType
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(base)

	switch {
	case strings.HasPrefix(base, "text/"),
		base == "application/json",
		base == "application/xml",
		base == "application/csv":
		return string(data), nil
	}
	return "", fmt.Errorf("unsupported content type %q", base)
}

// AddFileRequest carries one upload. The tenant comes from the caller's
// identity, never from the request body.
type AddFileRequest struct {
	Filename string
	MimeType string
	Bytes    []byte
	Category string
}

// FileService ingests documents into the tenant-namespaced knowledge index.
type FileService struct {
	db        *gorm.DB
	blobs     blob.Store
	extractor TextExtractor
	logger    *logger.Logger
}

// NewFileService creates a file service.
func NewFileService(db *gorm.DB, blobs blob.Store, extractor TextExtractor, log *logger.Logger) *FileService {
	return &FileService{
		db:        db,
		blobs:     blobs,
		extractor: extractor,
		logger:    log,
	}
}

// AddFile stores the blob, extracts text, and inserts a knowledge entry keyed
// by content hash. Re-uploading identical bytes under the same tenant does
// not create a second entry: the unique (namespace, hash) index rejects the
// insert, the fresh blob is deleted, and the pre-existing entry is returned.
// The cleanup delete runs even though the call as a whole succeeds.
func (s *FileService) AddFile(ctx context.Context, organizationID string, req *AddFileRequest) (*model.AddFileResponse, error) {
	if organizationID == "" {
		return nil, apierror.Unauthorized("Organization ID not found")
	}
	if req.Filename == "" {
		return nil, apierror.BadRequest("Filename is required")
	}
	if len(req.Bytes) == 0 {
		return nil, apierror.BadRequest("File is empty")
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = GuessMimeType(req.Filename, req.Bytes)
	}

	storageID, err := s.blobs.Store(ctx, req.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}

	sum := sha256.Sum256(req.Bytes)
	hash := hex.EncodeToString(sum[:])

	status := model.FileStatusReady
	text, extractErr := s.extractor.Extract(ctx, req.Filename, mimeType, req.Bytes)
	if extractErr != nil {
		s.logger.Warn("text extraction failed; entry recorded with error status")
		status = model.FileStatusError
	}

	now := time.Now()
	entry := &model.FileEntry{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Namespace:   organizationID,
		ContentHash: hash,
		Key:         req.Filename,
		Status:      model.FileStatusPending,
		StorageID:   storageID,
		UploadedBy:  organizationID,
		MimeType:    mimeType,
		Category:    req.Category,
		Size:        int64(len(req.Bytes)),
		Content:     text,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Create(entry).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Dedup path: the second blob must not survive.
		if delErr := s.blobs.Delete(ctx, storageID); delErr != nil {
			s.logger.Warn("failed to delete duplicate blob")
		}

		var existing model.FileEntry
		if err := s.db.WithContext(ctx).
			First(&existing, "namespace = ? AND content_hash = ?", organizationID, hash).Error; err != nil {
			return nil, fmt.Errorf("failed to load existing entry: %w", err)
		}

		metrics.FileUploadsTotal.WithLabelValues("duplicate").Inc()
		return &model.AddFileResponse{
			Entry:   s.publicFile(&existing),
			Created: false,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(entry).
		Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to finalize entry status: %w", err)
	}
	entry.Status = status

	metrics.FileUploadsTotal.WithLabelValues(string(status)).Inc()
	return &model.AddFileResponse{
		Entry:   s.publicFile(entry),
		Created: true,
	}, nil
}

// DeleteFile removes an entry and its blob. The caller's tenant must match
// the entry's uploader.
func (s *FileService) DeleteFile(ctx context.Context, organizationID, entryID string) error {
	var entry model.FileEntry
	err := s.db.WithContext(ctx).First(&entry, "id = ?", entryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Entry not found")
		}
		return fmt.Errorf("failed to load entry: %w", err)
	}

	if entry.UploadedBy != organizationID {
		return apierror.Unauthorized("You do not have permission to delete this file")
	}

	if entry.StorageID != "" {
		if err := s.blobs.Delete(ctx, entry.StorageID); err != nil {
			s.logger.Warn("failed to delete stored blob")
		}
	}

	if err := s.db.WithContext(ctx).Delete(&model.FileEntry{}, "id = ?", entry.ID).Error; err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// List returns the tenant's knowledge entries as dashboard projections,
// newest first.
func (s *FileService) List(ctx context.Context, organizationID, category string) ([]model.PublicFile, error) {
	q := s.db.WithContext(ctx).
		Where("namespace = ?", organizationID).
		Order("created_at DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var entries []model.FileEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	out := make([]model.PublicFile, 0, len(entries))
	for i := range entries {
		out = append(out, s.publicFile(&entries[i]))
	}
	return out, nil
}

// GuessMimeType resolves a MIME type by extension first, then content
// sniffing, then the octet-stream fallback.
func GuessMimeType(filename string, data []byte) string {
	if ext := filepath.Ext(filename); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	if detected := mimetype.Detect(data); detected != nil {
		return detected.String()
	}
	return "application/octet-stream"
}

func (s *FileService) publicFile(entry *model.FileEntry) model.PublicFile {
	status := "error"
	switch entry.Status {
	case model.FileStatusReady:
		status = "ready"
	case model.FileStatusPending:
		status = "processing"
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Key)), ".")

	return model.PublicFile{
		ID:       entry.ID,
		Name:     entry.Key,
		Type:     ext,
		Size:     formatFileSize(entry.Size),
		Status:   status,
		URL:      s.blobs.URL(entry.StorageID),
		Category: entry.Category,
	}
}

func formatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	const k = 1024
	sizes := []string{"B", "KB", "MB", "GB", "TB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := math.Round(float64(bytes)/math.Pow(k, float64(i))*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizes[i]
}
