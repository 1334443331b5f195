package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/giadat1599/echo-support-api/internal/apierror"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

type conversationFixture struct {
	db       *gorm.DB
	threads  *memThreadStore
	sessions *SessionService
	svc      *ConversationService
}

func newConversationFixture(t *testing.T, dbName string) *conversationFixture {
	t.Helper()

	db := newTestDB(t, dbName)
	threads := newMemThreadStore()
	sessions := NewSessionService(db, 24*time.Hour, logger.NewNop())

	return &conversationFixture{
		db:       db,
		threads:  threads,
		sessions: sessions,
		svc:      NewConversationService(db, threads, sessions, logger.NewNop()),
	}
}

func (f *conversationFixture) newSession(t *testing.T, orgID string) *model.ContactSession {
	t.Helper()
	session, err := f.sessions.Create(context.Background(), &model.CreateSessionRequest{
		Name:           "Ada",
		Email:          "ada@example.com",
		OrganizationID: orgID,
	})
	require.NoError(t, err)
	return session
}

func TestConversationCreate(t *testing.T) {
	f := newConversationFixture(t, "conversation_create")
	session := f.newSession(t, "org_1")

	id, err := f.svc.Create(context.Background(), &model.CreateConversationRequest{
		ContactSessionID: session.ID,
		OrganizationID:   "org_1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var conv model.Conversation
	require.NoError(t, f.db.First(&conv, "id = ?", id).Error)
	assert.Equal(t, model.StatusUnresolved, conv.Status)
	assert.Equal(t, "org_1", conv.OrganizationID)
	assert.Equal(t, session.ID, conv.ContactSessionID)
	require.NotEmpty(t, conv.ThreadID)

	msgs := f.threads.messages(conv.ThreadID)
	require.Len(t, msgs, 1)
	assert.Equal(t, string(model.RoleAssistant), msgs[0].Role)
	assert.Equal(t, welcomeMessage, msgs[0].Content)
}

func TestConversationCreateRejectsMismatchedOrganization(t *testing.T) {
	f := newConversationFixture(t, "conversation_create_mismatch")
	session := f.newSession(t, "org_1")

	_, err := f.svc.Create(context.Background(), &model.CreateConversationRequest{
		ContactSessionID: session.ID,
		OrganizationID:   "org_2",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
	assert.Contains(t, err.Error(), "Invalid session")
}

func TestConversationGetOneForSession(t *testing.T) {
	f := newConversationFixture(t, "conversation_get_session")
	owner := f.newSession(t, "org_1")
	stranger := f.newSession(t, "org_1")

	id, err := f.svc.Create(context.Background(), &model.CreateConversationRequest{
		ContactSessionID: owner.ID,
		OrganizationID:   "org_1",
	})
	require.NoError(t, err)

	t.Run("owner can read", func(t *testing.T) {
		view, err := f.svc.GetOneForSession(context.Background(), id, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, id, view.ID)
		assert.Equal(t, model.StatusUnresolved, view.Status)
		assert.NotEmpty(t, view.ThreadID)
	})

	t.Run("other session is forbidden", func(t *testing.T) {
		_, err := f.svc.GetOneForSession(context.Background(), id, stranger.ID)
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
		assert.Contains(t, err.Error(), "Access to this conversation is forbidden")
	})

	t.Run("unknown conversation", func(t *testing.T) {
		_, err := f.svc.GetOneForSession(context.Background(), uuid.NewString(), owner.ID)
		assert.True(t, apierror.IsCode(err, apierror.CodeNotFound))
	})
}

func TestConversationUpdateStatus(t *testing.T) {
	f := newConversationFixture(t, "conversation_update_status")
	session := f.newSession(t, "org_1")

	id, err := f.svc.Create(context.Background(), &model.CreateConversationRequest{
		ContactSessionID: session.ID,
		OrganizationID:   "org_1",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		orgID    string
		status   model.ConversationStatus
		wantCode apierror.Code
	}{
		{name: "escalate", orgID: "org_1", status: model.StatusEscalated},
		{name: "resolve", orgID: "org_1", status: model.StatusResolved},
		{name: "reopen", orgID: "org_1", status: model.StatusUnresolved},
		{name: "invalid status", orgID: "org_1", status: "archived", wantCode: apierror.CodeBadRequest},
		{name: "wrong tenant", orgID: "org_2", status: model.StatusResolved, wantCode: apierror.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := f.svc.UpdateStatus(context.Background(), tt.orgID, id, tt.status)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apierror.IsCode(err, tt.wantCode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, view.Status)

			var stored model.Conversation
			require.NoError(t, f.db.First(&stored, "id = ?", id).Error)
			assert.Equal(t, tt.status, stored.Status)
		})
	}
}

func TestConversationList(t *testing.T) {
	f := newConversationFixture(t, "conversation_list")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	statuses := []model.ConversationStatus{
		model.StatusUnresolved,
		model.StatusEscalated,
		model.StatusResolved,
		model.StatusUnresolved,
		model.StatusUnresolved,
	}
	for i, status := range statuses {
		conv := &model.Conversation{
			ID:               uuid.Must(uuid.NewV7()).String(),
			OrganizationID:   "org_1",
			ContactSessionID: "sess_1",
			ThreadID:         uuid.Must(uuid.NewV7()).String(),
			Status:           status,
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:        base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.db.Create(conv).Error)
	}

	// A second tenant's conversation must never show up.
	require.NoError(t, f.db.Create(&model.Conversation{
		ID:             uuid.Must(uuid.NewV7()).String(),
		OrganizationID: "org_2",
		ThreadID:       uuid.Must(uuid.NewV7()).String(),
		Status:         model.StatusUnresolved,
		CreatedAt:      base.Add(time.Hour),
	}).Error)

	t.Run("newest first, tenant scoped", func(t *testing.T) {
		page, err := f.svc.List(context.Background(), "org_1", nil, "", 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 5)
		assert.True(t, page.IsDone)
		assert.Empty(t, page.NextCursor)
		for _, item := range page.Items {
			assert.Equal(t, "org_1", item.OrganizationID)
		}
		assert.True(t, page.Items[0].CreatedAt.After(page.Items[4].CreatedAt))
	})

	t.Run("status filter", func(t *testing.T) {
		status := model.StatusUnresolved
		page, err := f.svc.List(context.Background(), "org_1", &status, "", 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		for _, item := range page.Items {
			assert.Equal(t, model.StatusUnresolved, item.Status)
		}
	})

	t.Run("invalid status filter", func(t *testing.T) {
		status := model.ConversationStatus("archived")
		_, err := f.svc.List(context.Background(), "org_1", &status, "", 10)
		assert.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
	})

	t.Run("cursor pagination", func(t *testing.T) {
		first, err := f.svc.List(context.Background(), "org_1", nil, "", 2)
		require.NoError(t, err)
		require.Len(t, first.Items, 2)
		assert.False(t, first.IsDone)
		require.NotEmpty(t, first.NextCursor)

		second, err := f.svc.List(context.Background(), "org_1", nil, first.NextCursor, 2)
		require.NoError(t, err)
		require.Len(t, second.Items, 2)
		assert.False(t, second.IsDone)

		third, err := f.svc.List(context.Background(), "org_1", nil, second.NextCursor, 2)
		require.NoError(t, err)
		require.Len(t, third.Items, 1)
		assert.True(t, third.IsDone)

		seen := map[string]bool{}
		for _, page := range [][]model.Conversation{first.Items, second.Items, third.Items} {
			for _, item := range page {
				assert.False(t, seen[item.ID], "conversation %s returned twice", item.ID)
				seen[item.ID] = true
			}
		}
		assert.Len(t, seen, 5)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		_, err := f.svc.List(context.Background(), "org_1", nil, "not-a-cursor", 2)
		assert.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
	})
}

func TestConversationGetByThreadID(t *testing.T) {
	f := newConversationFixture(t, "conversation_by_thread")
	session := f.newSession(t, "org_1")

	id, err := f.svc.Create(context.Background(), &model.CreateConversationRequest{
		ContactSessionID: session.ID,
		OrganizationID:   "org_1",
	})
	require.NoError(t, err)

	var conv model.Conversation
	require.NoError(t, f.db.First(&conv, "id = ?", id).Error)

	got, err := f.svc.GetByThreadID(context.Background(), conv.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = f.svc.GetByThreadID(context.Background(), "missing-thread")
	assert.True(t, apierror.IsCode(err, apierror.CodeNotFound))
}
