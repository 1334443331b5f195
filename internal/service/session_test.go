package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giadat1599/echo-support-api/internal/apierror"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

func TestSessionCreate(t *testing.T) {
	db := newTestDB(t, "session_create")
	svc := NewSessionService(db, 24*time.Hour, logger.NewNop())

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	tests := []struct {
		name    string
		req     *model.CreateSessionRequest
		wantErr string
	}{
		{
			name: "valid",
			req: &model.CreateSessionRequest{
				Name:           "Ada",
				Email:          "ada@example.com",
				OrganizationID: "org_1",
			},
		},
		{
			name:    "missing name",
			req:     &model.CreateSessionRequest{Email: "ada@example.com", OrganizationID: "org_1"},
			wantErr: "Name and email are required",
		},
		{
			name:    "whitespace email",
			req:     &model.CreateSessionRequest{Name: "Ada", Email: "   ", OrganizationID: "org_1"},
			wantErr: "Name and email are required",
		},
		{
			name:    "missing organization",
			req:     &model.CreateSessionRequest{Name: "Ada", Email: "ada@example.com"},
			wantErr: "Organization ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.Create(context.Background(), tt.req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apierror.IsCode(err, apierror.CodeBadRequest))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, session.ID)
			assert.Equal(t, base.Add(24*time.Hour), session.ExpiresAt)
		})
	}
}

func TestSessionValidate(t *testing.T) {
	db := newTestDB(t, "session_validate")
	svc := NewSessionService(db, 24*time.Hour, logger.NewNop())

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	session, err := svc.Create(context.Background(), &model.CreateSessionRequest{
		Name:           "Ada",
		Email:          "ada@example.com",
		OrganizationID: "org_1",
	})
	require.NoError(t, err)

	t.Run("valid session", func(t *testing.T) {
		got, err := svc.Validate(context.Background(), session.ID)
		require.NoError(t, err)
		assert.Equal(t, "org_1", got.OrganizationID)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := svc.Validate(context.Background(), "")
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Validate(context.Background(), "missing")
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
	})

	t.Run("one nanosecond before expiry is valid", func(t *testing.T) {
		svc.now = func() time.Time { return session.ExpiresAt.Add(-time.Nanosecond) }
		_, err := svc.Validate(context.Background(), session.ID)
		assert.NoError(t, err)
	})

	t.Run("exact expiry instant is invalid", func(t *testing.T) {
		svc.now = func() time.Time { return session.ExpiresAt }
		_, err := svc.Validate(context.Background(), session.ID)
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
	})

	t.Run("past expiry is invalid", func(t *testing.T) {
		svc.now = func() time.Time { return session.ExpiresAt.Add(time.Hour) }
		_, err := svc.Validate(context.Background(), session.ID)
		assert.True(t, apierror.IsCode(err, apierror.CodeUnauthorized))
	})
}

func TestOrganizationValidate(t *testing.T) {
	db := newTestDB(t, "org_validate")
	require.NoError(t, db.Create(&model.Organization{ID: "org_1", Name: "Acme"}).Error)

	svc := NewOrganizationService(db, logger.NewNop())

	tests := []struct {
		name       string
		orgID      string
		wantValid  bool
		wantReason string
	}{
		{name: "known org", orgID: "org_1", wantValid: true},
		{name: "unknown org", orgID: "org_2", wantReason: "Organization not found"},
		{name: "empty id", orgID: "", wantReason: "Organization ID is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Validate(context.Background(), tt.orgID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, resp.Valid)
			assert.Equal(t, tt.wantReason, resp.Reason)
		})
	}
}
