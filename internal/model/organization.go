package model

import (
	"time"
)

// Organization is a configured tenant. The ID is the external identifier the
// widget embed passes around, so it doubles as the primary key.
type Organization struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateOrganizationRequest carries the untrusted embed parameter.
type ValidateOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

// ValidateOrganizationResponse reports whether the tenant exists. Reason is
// only populated on failure so internal configuration never leaks on success.
type ValidateOrganizationResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}
