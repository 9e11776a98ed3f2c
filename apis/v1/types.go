// Package v1 holds the wire types of the console REST API, shared by the
// server, the Go client and the CLI.
package v1

import (
	"encoding/json"
	"time"
)

// CreateLinkRequest creates a sync link.
type CreateLinkRequest struct {
	SourceKind          string            `json:"source_kind"`
	SourceReference     string            `json:"source_reference"`
	DestinationStore    string            `json:"destination_store"`
	DisplayName         string            `json:"display_name,omitempty"`
	SyncMode            string            `json:"sync_mode,omitempty"`
	SyncIntervalMinutes int               `json:"sync_interval_minutes,omitempty"`
	CustomMetadata      map[string]string `json:"custom_metadata,omitempty"`
	ProjectID           string            `json:"project_id,omitempty"`
}

// Link is one sync link between an external file and a store document.
type Link struct {
	ID                      string            `json:"id"`
	SourceKind              string            `json:"source_kind"`
	SourceReference         string            `json:"source_reference"`
	DestinationStore        string            `json:"destination_store"`
	DisplayName             string            `json:"display_name"`
	SyncMode                string            `json:"sync_mode"`
	SyncIntervalMinutes     int               `json:"sync_interval_minutes,omitempty"`
	CurrentVersion          int64             `json:"current_version"`
	CurrentRemoteDocumentID string            `json:"current_remote_document_id,omitempty"`
	ContentFingerprint      string            `json:"content_fingerprint,omitempty"`
	Status                  string            `json:"status"`
	ErrorMessage            string            `json:"error_message,omitempty"`
	LastSyncedAt            *time.Time        `json:"last_synced_at,omitempty"`
	CustomMetadata          map[string]string `json:"custom_metadata,omitempty"`
	ProjectID               string            `json:"project_id,omitempty"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

type LinkList struct {
	Links []*Link `json:"links"`
}

// VersionRecord is one superseded document generation of a link.
type VersionRecord struct {
	LinkID           string    `json:"link_id"`
	VersionNumber    int64     `json:"version_number"`
	RemoteDocumentID string    `json:"remote_document_id"`
	ReplacedAt       time.Time `json:"replaced_at"`
}

// History is a link's current version plus its replacement records, newest
// first.
type History struct {
	LinkID         string           `json:"link_id"`
	CurrentVersion int64            `json:"current_version"`
	Records        []*VersionRecord `json:"records"`
}

type CreateStoreRequest struct {
	DisplayName string `json:"display_name"`
}

// Store is one hosted File Search document store.
type Store struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	CreateTime    string `json:"create_time,omitempty"`
	DocumentCount int64  `json:"document_count,omitempty"`
}

type StoreList struct {
	Stores []*Store `json:"stores"`
}

// Document is one document inside a store.
type Document struct {
	ID          string            `json:"id"`
	StoreID     string            `json:"store_id"`
	DisplayName string            `json:"display_name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	SizeBytes   int64             `json:"size_bytes,omitempty"`
	CreateTime  string            `json:"create_time,omitempty"`
}

type DocumentList struct {
	Documents []*Document `json:"documents"`
}

type QueryRequest struct {
	Query          string            `json:"query"`
	TopK           int               `json:"top_k,omitempty"`
	MetadataFilter map[string]string `json:"metadata_filter,omitempty"`
}

// Chunk is one retrieved passage with its relevance score.
type Chunk struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name,omitempty"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
}

type QueryResult struct {
	Query  string   `json:"query"`
	Chunks []*Chunk `json:"chunks"`
}

// BackupInfo describes one backup archive.
type BackupInfo struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

type BackupList struct {
	Backups []*BackupInfo `json:"backups"`
}

// AuditRecord is one recorded console action.
type AuditRecord struct {
	ID           uint            `json:"id"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type,omitempty"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"error_message,omitempty"`
	ClientIP     string          `json:"client_ip,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type AuditList struct {
	Records []*AuditRecord `json:"records"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Health struct {
	Status string `json:"status"`
}
