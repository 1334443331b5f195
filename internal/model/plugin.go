package model

import (
	"time"
)

// PluginService names a supported third-party integration. Closed set.
type PluginService string

const (
	PluginServiceVapi PluginService = "vapi"
)

// Valid reports whether s is a known service.
func (s PluginService) Valid() bool {
	return s == PluginServiceVapi
}

// Plugin is a per-tenant integration record. Unique per (organization,
// service); connecting again patches the existing row.
type Plugin struct {
	ID             string        `gorm:"primaryKey" json:"id"`
	OrganizationID string        `gorm:"uniqueIndex:idx_plugins_org_service" json:"organization_id"`
	Service        PluginService `gorm:"uniqueIndex:idx_plugins_org_service" json:"service"`
	SecretName     string        `json:"secret_name"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// UpsertPluginRequest connects or re-keys an integration.
type UpsertPluginRequest struct {
	Service    PluginService `json:"service"`
	SecretName string        `json:"secret_name"`
}
