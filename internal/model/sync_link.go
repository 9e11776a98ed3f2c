package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Source kinds a sync link can track.
const (
	SourceLocal = "local"
	SourceDrive = "drive"
)

// Sync modes. Auto links are picked up by the scheduler sweeps.
const (
	ModeManual = "manual"
	ModeAuto   = "auto"
)

// Link statuses. Syncing is transient, an attempt always leaves the link
// in synced or error.
const (
	StatusPending = "pending"
	StatusSyncing = "syncing"
	StatusSynced  = "synced"
	StatusError   = "error"
)

// MinSyncIntervalMinutes bounds the scheduler load from auto links.
const MinSyncIntervalMinutes = 5

// DefaultSyncIntervalMinutes applies to auto links created without an
// explicit interval.
const DefaultSyncIntervalMinutes = 60

// MaxCustomMetadata caps the user defined metadata pairs per link.
const MaxCustomMetadata = 20

// SyncLink binds one external file (local path or Drive file id) to one
// destination File Search store. The current remote document id and the
// content fingerprint are only ever written together.
type SyncLink struct {
	gorm.Model
	ID                      string `gorm:"primaryKey;uuid;not null;"`
	SourceKind              string `gorm:"not null;index"`
	SourceReference         string `gorm:"not null"`
	DestinationStore        string `gorm:"not null"`
	DisplayName             string
	SyncMode                string `gorm:"not null;default:manual"`
	SyncIntervalMinutes     int
	CurrentVersion          int64 `gorm:"not null;default:1"`
	CurrentRemoteDocumentID string
	ContentFingerprint      string
	SourceSignal            string // last observed cheap change signal, opaque
	Status                  string `gorm:"not null;default:pending"`
	ErrorMessage            string
	LastSyncedAt            *time.Time
	CustomMetadata          string // JSON object of user key/value pairs
	ProjectID               string `gorm:"uuid;index"`
}

// Metadata decodes the user defined key/value pairs.
func (l *SyncLink) Metadata() (map[string]string, error) {
	meta := make(map[string]string)
	if l.CustomMetadata == "" {
		return meta, nil
	}

	if err := json.Unmarshal([]byte(l.CustomMetadata), &meta); err != nil {
		return nil, err
	}

	return meta, nil
}

// SetMetadata encodes the user defined key/value pairs.
func (l *SyncLink) SetMetadata(meta map[string]string) error {
	if len(meta) == 0 {
		l.CustomMetadata = ""
		return nil
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	l.CustomMetadata = string(data)
	return nil
}

func (l *SyncLink) MarshalBinary() ([]byte, error) {
	return json.Marshal(l)
}
