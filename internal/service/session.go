// Package service provides business logic for the support platform.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giadat1599/echo-support-api/internal/apierror"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

// SessionService creates and validates contact sessions, the anonymous
// expiring credentials identifying widget visitors.
type SessionService struct {
	db     *gorm.DB
	ttl    time.Duration
	logger *logger.Logger

	now func() time.Time
}

// NewSessionService creates a session service.
func NewSessionService(db *gorm.DB, ttl time.Duration, log *logger.Logger) *SessionService {
	return &SessionService{
		db:     db,
		ttl:    ttl,
		logger: log,
		now:    time.Now,
	}
}

// Create registers a new contact session on widget auth submission.
func (s *SessionService) Create(ctx context.Context, req *model.CreateSessionRequest) (*model.ContactSession, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		return nil, apierror.BadRequest("Name and email are required")
	}
	if req.OrganizationID == "" {
		return nil, apierror.BadRequest("Organization ID is required")
	}

	now := s.now()
	session := &model.ContactSession{
		ID:             uuid.Must(uuid.NewV7()).String(),
		OrganizationID: req.OrganizationID,
		Name:           name,
		Email:          email,
		ExpiresAt:      now.Add(s.ttl),
		Metadata:       req.Metadata,
		CreatedAt:      now,
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create contact session: %w", err)
	}

	return session, nil
}

// Validate fetches the session and checks its expiry. Absent and expired
// sessions are both unauthorized; no caller may read anything on their
// behalf.
func (s *SessionService) Validate(ctx context.Context, contactSessionID string) (*model.ContactSession, error) {
	if contactSessionID == "" {
		return nil, apierror.Unauthorized("Invalid session")
	}

	var session model.ContactSession
	err := s.db.WithContext(ctx).First(&session, "id = ?", contactSessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Unauthorized("Invalid session")
		}
		return nil, fmt.Errorf("failed to load contact session: %w", err)
	}

	if session.Expired(s.now()) {
		return nil, apierror.Unauthorized("Invalid session")
	}

	return &session, nil
}
