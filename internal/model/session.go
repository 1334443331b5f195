package model

import (
	"time"
)

// SessionMetadata is the client fingerprint captured at widget auth. Purely
// informational; nothing authorizes on it.
type SessionMetadata struct {
	UserAgent        string `json:"user_agent,omitempty"`
	Language         string `json:"language,omitempty"`
	Languages        string `json:"languages,omitempty"`
	Platform         string `json:"platform,omitempty"`
	Vendor           string `json:"vendor,omitempty"`
	ScreenResolution string `json:"screen_resolution,omitempty"`
	ViewportSize     string `json:"viewport_size,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	TimezoneOffset   int    `json:"timezone_offset,omitempty"`
	CookieEnabled    bool   `json:"cookie_enabled,omitempty"`
	Referrer         string `json:"referrer,omitempty"`
	CurrentURL       string `json:"current_url,omitempty"`
}

// ContactSession is an anonymous, expiring credential identifying one widget
// visitor. Every end-user read or write checks now < ExpiresAt first.
type ContactSession struct {
	ID             string          `gorm:"primaryKey" json:"id"`
	OrganizationID string          `gorm:"index" json:"organization_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	ExpiresAt      time.Time       `json:"expires_at"`
	Metadata       SessionMetadata `gorm:"serializer:json" json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *ContactSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// CreateSessionRequest is the widget auth submission.
type CreateSessionRequest struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	OrganizationID string          `json:"organization_id"`
	Metadata       SessionMetadata `json:"metadata"`
}
