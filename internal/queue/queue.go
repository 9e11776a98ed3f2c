package queue

import (
	"context"
	"time"
)

// SyncEvent is one terminal sync outcome for a link.
type SyncEvent struct {
	LinkID     string    `json:"link_id"`
	SourceKind string    `json:"source_kind"`
	Store      string    `json:"store"`
	Status     string    `json:"status"`
	Version    int64     `json:"version"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// SyncEventQueue publishes link sync outcomes for downstream consumers.
// Publishing is best effort, a failed publish never fails the sync.
type SyncEventQueue interface {
	// PublishSyncEvent appends a sync outcome to the queue.
	PublishSyncEvent(ctx context.Context, event *SyncEvent) error
	Close() error
}
