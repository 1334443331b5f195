package model

import (
	"time"
)

// FileStatus is the ingestion state of a knowledge entry.
type FileStatus string

const (
	FileStatusPending FileStatus = "pending"
	FileStatusReady   FileStatus = "ready"
	FileStatusError   FileStatus = "error"
)

// FileEntry is one unit of ingested knowledge, namespaced by tenant and
// deduplicated by content hash. The (namespace, content_hash) unique index is
// what makes concurrent identical uploads converge on a single row.
type FileEntry struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	Namespace   string     `gorm:"uniqueIndex:idx_entries_namespace_hash" json:"namespace"`
	ContentHash string     `gorm:"uniqueIndex:idx_entries_namespace_hash" json:"content_hash"`
	Key         string     `json:"key"`
	Status      FileStatus `json:"status"`
	StorageID   string     `json:"storage_id"`
	UploadedBy  string     `json:"uploaded_by"`
	MimeType    string     `json:"mime_type"`
	Category    string     `json:"category,omitempty"`
	Size        int64      `json:"size"`
	Content     string     `gorm:"type:text" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PublicFile is the dashboard projection of a knowledge entry.
type PublicFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     string `json:"size"`
	Status   string `json:"status"`
	URL      string `json:"url,omitempty"`
	Category string `json:"category,omitempty"`
}

// AddFileResponse is returned from an upload. Entry points at the surviving
// row, which on a duplicate upload is the pre-existing one.
type AddFileResponse struct {
	Entry   PublicFile `json:"entry"`
	Created bool       `json:"created"`
}
