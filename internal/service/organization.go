package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/giadat1599/echo-support-api/internal/model"
	"github.com/giadat1599/echo-support-api/pkg/logger"
)

// OrganizationService checks untrusted organization identifiers against the
// tenant directory. It runs once at widget bootstrap, before any session is
// trusted.
type OrganizationService struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewOrganizationService creates an organization service.
func NewOrganizationService(db *gorm.DB, log *logger.Logger) *OrganizationService {
	return &OrganizationService{db: db, logger: log}
}

// Validate reports whether the claimed organization is a configured tenant.
// The reason is only populated on failure.
func (s *OrganizationService) Validate(ctx context.Context, organizationID string) (*model.ValidateOrganizationResponse, error) {
	if organizationID == "" {
		return &model.ValidateOrganizationResponse{
			Valid:  false,
			Reason: "Organization ID is required",
		}, nil
	}

	var org model.Organization
	err := s.db.WithContext(ctx).First(&org, "id = ?", organizationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.ValidateOrganizationResponse{
				Valid:  false,
				Reason: "Organization not found",
			}, nil
		}
		return nil, fmt.Errorf("failed to look up organization: %w", err)
	}

	return &model.ValidateOrganizationResponse{Valid: true}, nil
}
