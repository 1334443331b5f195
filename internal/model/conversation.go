// Package model defines data structures for the support platform.
package model

import (
	"time"
)

// ConversationStatus is the lifecycle state of a support conversation.
type ConversationStatus string

const (
	StatusUnresolved ConversationStatus = "unresolved"
	StatusEscalated  ConversationStatus = "escalated"
	StatusResolved   ConversationStatus = "resolved"
)

// Valid reports whether s is one of the three known statuses.
func (s ConversationStatus) Valid() bool {
	switch s {
	case StatusUnresolved, StatusEscalated, StatusResolved:
		return true
	}
	return false
}

// Conversation is one support interaction between a contact session and an
// organization. All of its messages live on a single thread for the lifetime
// of the conversation.
type Conversation struct {
	ID               string             `gorm:"primaryKey" json:"id"`
	OrganizationID   string             `gorm:"index:idx_conversations_org_status" json:"organization_id"`
	ContactSessionID string             `gorm:"index" json:"contact_session_id"`
	ThreadID         string             `gorm:"uniqueIndex" json:"thread_id"`
	Status           ConversationStatus `gorm:"index:idx_conversations_org_status" json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ConversationView is the reduced projection returned to callers. Internal
// fields never leave the store.
type ConversationView struct {
	ID       string             `json:"id"`
	Status   ConversationStatus `json:"status"`
	ThreadID string             `json:"thread_id"`
}

// View returns the public projection of the conversation.
func (c *Conversation) View() *ConversationView {
	return &ConversationView{
		ID:       c.ID,
		Status:   c.Status,
		ThreadID: c.ThreadID,
	}
}

// CreateConversationRequest is the widget request to start a conversation.
type CreateConversationRequest struct {
	ContactSessionID string `json:"contact_session_id"`
	OrganizationID   string `json:"organization_id"`
}

// UpdateConversationStatusRequest is the operator request to force a status.
type UpdateConversationStatusRequest struct {
	Status ConversationStatus `json:"status"`
}

// ConversationPage is one cursor page of a tenant's conversations,
// newest-first.
type ConversationPage struct {
	Items      []Conversation `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
	IsDone     bool           `json:"is_done"`
}
