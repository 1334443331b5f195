package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giadat1599/echo-support-api/internal/apierror"
	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

// PluginService stores per-tenant integration credentials.
type PluginService struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewPluginService creates a plugin service.
func NewPluginService(db *gorm.DB, log *logger.Logger) *PluginService {
	return &PluginService{db: db, logger: log}
}

// Upsert connects an integration: the (organization, service) pair is unique,
// so an existing record is patched rather than duplicated.
func (s *PluginService) Upsert(ctx context.Context, organizationID string, req *model.UpsertPluginRequest) (*model.Plugin, error) {
	if !req.Service.Valid() {
		return nil, apierror.BadRequest("Unknown plugin service")
	}
	if req.SecretName == "" {
		return nil, apierror.BadRequest("Secret name is required")
	}

	now := time.Now()

	var existing model.Plugin
	err := s.db.WithContext(ctx).
		First(&existing, "organization_id = ? AND service = ?", organizationID, req.Service).Error
	switch {
	case err == nil:
		existing.SecretName = req.SecretName
		existing.UpdatedAt = now
		if err := s.db.WithContext(ctx).Model(&existing).
			Select("secret_name", "updated_at").
			Updates(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to patch plugin: %w", err)
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		plugin := &model.Plugin{
			ID:             uuid.Must(uuid.NewV7()).String(),
			OrganizationID: organizationID,
			Service:        req.Service,
			SecretName:     req.SecretName,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.db.WithContext(ctx).Create(plugin).Error; err != nil {
			return nil, fmt.Errorf("failed to insert plugin: %w", err)
		}
		return plugin, nil
	default:
		return nil, fmt.Errorf("failed to look up plugin: %w", err)
	}
}

// GetOne returns the tenant's record for a service.
func (s *PluginService) GetOne(ctx context.Context, organizationID string, svc model.PluginService) (*model.Plugin, error) {
	if !svc.Valid() {
		return nil, apierror.BadRequest("Unknown plugin service")
	}

	var plugin model.Plugin
	err := s.db.WithContext(ctx).
		First(&plugin, "organization_id = ? AND service = ?", organizationID, svc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Plugin not found")
		}
		return nil, fmt.Errorf("failed to load plugin: %w", err)
	}
	return &plugin, nil
}

// Remove disconnects an integration.
func (s *PluginService) Remove(ctx context.Context, organizationID string, svc model.PluginService) error {
	plugin, err := s.GetOne(ctx, organizationID, svc)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&model.Plugin{}, "id = ?", plugin.ID).Error; err != nil {
		return fmt.Errorf("failed to delete plugin: %w", err)
	}
	return nil
}
