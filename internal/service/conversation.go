package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giadat1599/echo-support-api/internal/apierror"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/internal/thread"
	"github.com/giadat1599/echo-support-api/pkg/logger"
	"github.com/giadat1599/echo-support-api/pkg/metrics"
)

// welcomeMessage seeds every new conversation thread before the first user
// message exists.
const welcomeMessage = "Hi there! How can I help you today?"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ConversationService owns conversation records and their status lifecycle.
type ConversationService struct {
	db       *gorm.DB
	threads  thread.Store
	sessions *SessionService
	logger   *logger.Logger
}

// NewConversationService creates a conversation service.
func NewConversationService(db *gorm.DB, threads thread.Store, sessions *SessionService, log *logger.Logger) *ConversationService {
	return &ConversationService{
		db:       db,
		threads:  threads,
		sessions: sessions,
		logger:   log,
	}
}

// Create starts a conversation for a contact session: it opens a thread,
// seeds the assistant welcome message, and inserts the record as unresolved.
// Returns the new conversation id.
func (s *ConversationService) Create(ctx context.Context, req *model.CreateConversationRequest) (string, error) {
	session, err := s.sessions.Validate(ctx, req.ContactSessionID)
	if err != nil {
		return "", err
	}
	if session.OrganizationID != req.OrganizationID {
		return "", apierror.Unauthorized("Invalid session")
	}

	threadID, err := s.threads.CreateThread(ctx, session.OrganizationID)
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	seed := &thread.Message{
		ThreadID: threadID,
		Role:     string(model.RoleAssistant),
		Content:  welcomeMessage,
	}
	if err := s.threads.SaveMessage(ctx, session.OrganizationID, seed); err != nil {
		return "", fmt.Errorf("failed to seed welcome message: %w", err)
	}

	now := time.Now()
	conv := &model.Conversation{
		ID:               uuid.Must(uuid.NewV7()).String(),
		OrganizationID:   session.OrganizationID,
		ContactSessionID: session.ID,
		ThreadID:         threadID,
		Status:           model.StatusUnresolved,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return "", fmt.Errorf("failed to insert conversation: %w", err)
	}

	metrics.ConversationsTotal.WithLabelValues(conv.OrganizationID).Inc()

	return conv.ID, nil
}

// GetOneForSession returns the reduced projection for the end-user path. The
// caller's session must be valid and must own the conversation.
func (s *ConversationService) GetOneForSession(ctx context.Context, conversationID, contactSessionID string) (*model.ConversationView, error) {
	session, err := s.sessions.Validate(ctx, contactSessionID)
	if err != nil {
		return nil, err
	}

	conv, err := s.get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.ContactSessionID != session.ID {
		return nil, apierror.Unauthorized("Access to this conversation is forbidden")
	}

	return conv.View(), nil
}

// GetOneForOperator returns the reduced projection for the dashboard path.
// The conversation must belong to the operator's organization.
func (s *ConversationService) GetOneForOperator(ctx context.Context, organizationID, conversationID string) (*model.ConversationView, error) {
	conv, err := s.get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.OrganizationID != organizationID {
		return nil, apierror.Unauthorized("Access to this conversation is forbidden")
	}

	return conv.View(), nil
}

// UpdateStatus forces a conversation status. Any of the three statuses is
// directly settable by an operator; the unresolved-escalated-resolved toggle
// cycle is dashboard policy, not a store rule.
func (s *ConversationService) UpdateStatus(ctx context.Context, organizationID, conversationID string, status model.ConversationStatus) (*model.ConversationView, error) {
	if !status.Valid() {
		return nil, apierror.BadRequest("Invalid conversation status")
	}

	conv, err := s.get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.OrganizationID != organizationID {
		return nil, apierror.Unauthorized("Access to this conversation is forbidden")
	}

	conv.Status = status
	conv.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Model(conv).
		Select("status", "updated_at").
		Updates(conv).Error; err != nil {
		return nil, fmt.Errorf("failed to update conversation status: %w", err)
	}

	metrics.ConversationStatusTransitions.WithLabelValues(string(status)).Inc()

	return conv.View(), nil
}

// SetStatus is the agent tool entry point. The organization id comes from the
// conversation the tool was bound to at generation time.
func (s *ConversationService) SetStatus(ctx context.Context, organizationID, conversationID string, status model.ConversationStatus) error {
	_, err := s.UpdateStatus(ctx, organizationID, conversationID, status)
	return err
}

// List returns a tenant-scoped page of conversations, newest first, with an
// optional status filter.
func (s *ConversationService) List(ctx context.Context, organizationID string, status *model.ConversationStatus, cursor string, limit int) (*model.ConversationPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	q := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC")

	if status != nil {
		if !status.Valid() {
			return nil, apierror.BadRequest("Invalid conversation status")
		}
		q = q.Where("status = ?", *status)
	}

	if cursor != "" {
		nanos, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, apierror.BadRequest("Invalid cursor")
		}
		q = q.Where("created_at < ?", time.Unix(0, nanos))
	}

	var items []model.Conversation
	if err := q.Limit(limit + 1).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	page := &model.ConversationPage{IsDone: len(items) <= limit}
	if !page.IsDone {
		items = items[:limit]
		page.NextCursor = strconv.FormatInt(items[len(items)-1].CreatedAt.UnixNano(), 10)
	}
	page.Items = items

	return page, nil
}

// GetByThreadID resolves the conversation owning a thread.
func (s *ConversationService) GetByThreadID(ctx context.Context, threadID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).First(&conv, "thread_id = ?", threadID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Conversation not found")
		}
		return nil, fmt.Errorf("failed to load conversation by thread: %w", err)
	}
	return &conv, nil
}

func (s *ConversationService) get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).First(&conv, "id = ?", conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Conversation not found")
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conv, nil
}
