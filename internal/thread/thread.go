// Package thread defines the contract for the external message-thread store.
// The store owns message ordering and retention; this core only appends and
// reads. Every conversation maps to exactly one thread for its lifetime.
package thread

import (
	"context"
	"time"
)

// Message is one entry on a thread.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Sequence  uint64    `json:"sequence,omitempty"`
}

// Page is one cursor page of thread messages, oldest first.
type Page struct {
	Items      []Message `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
	IsDone     bool      `json:"is_done"`
}

// Store is the narrow interface the lifecycle core needs from the thread
// backend.
type Store interface {
	// CreateThread mints a new thread identifier scoped to the organization.
	CreateThread(ctx context.Context, organizationID string) (string, error)

	// SaveMessage appends a message to a thread.
	SaveMessage(ctx context.Context, organizationID string, msg *Message) error

	// ListMessages returns a page of a thread's messages starting after the
	// cursor. An empty cursor starts at the beginning.
	ListMessages(ctx context.Context, organizationID, threadID, cursor string, limit int) (*Page, error)
}
