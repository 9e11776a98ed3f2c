package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/store"
	"github.com/sirupsen/logrus"
)

// Audit actions recorded by the console.
const (
	AuditLinkCreated   = "link.created"
	AuditLinkDeleted   = "link.deleted"
	AuditLinkSynced    = "link.synced"
	AuditLinkReplaced  = "link.replaced"
	AuditStoreCreated  = "store.created"
	AuditStoreDeleted  = "store.deleted"
	AuditDocUploaded   = "document.uploaded"
	AuditDocDeleted    = "document.deleted"
	AuditQueryRun      = "query.run"
	AuditBackupCreated = "backup.created"
)

type clientIPKey struct{}

// WithClientIP tags ctx with the caller address for audit records.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// NewAuditService creates a new audit service.
func NewAuditService(store store.Store) *AuditService {
	return &AuditService{store: store}
}

// AuditService records console actions. Recording is best effort, an audit
// write failure never fails the action itself.
type AuditService struct {
	store store.Store
}

// Record appends one audit record.
func (a *AuditService) Record(ctx context.Context, action, resourceType, resourceID string, details map[string]any, actionErr error) {
	record := &model.AuditRecord{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Success:      actionErr == nil,
		ClientIP:     clientIP(ctx),
	}
	if actionErr != nil {
		record.ErrorMessage = actionErr.Error()
	}
	if len(details) > 0 {
		if data, err := json.Marshal(details); err == nil {
			record.Details = string(data)
		}
	}

	// the action context may already be expired, the record is written
	// regardless
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	if err := a.store.CreateAuditRecord(ctx, record); err != nil {
		logrus.Warnf("audit record %s: %v", action, err)
	}
}

// List returns audit records, newest first.
func (a *AuditService) List(ctx context.Context, filter store.AuditFilter) ([]*model.AuditRecord, error) {
	return a.store.ListAuditRecords(ctx, filter)
}
