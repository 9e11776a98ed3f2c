package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	v1 "github.com/emrgen/filesearch/apis/v1"
	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/service"
	"github.com/emrgen/filesearch/internal/store"
)

func toAuditRecord(rec *model.AuditRecord) *v1.AuditRecord {
	var details json.RawMessage
	if rec.Details != "" {
		details = json.RawMessage(rec.Details)
	}

	return &v1.AuditRecord{
		ID:           rec.ID,
		Action:       rec.Action,
		ResourceType: rec.ResourceType,
		ResourceID:   rec.ResourceID,
		Details:      details,
		Success:      rec.Success,
		ErrorMessage: rec.ErrorMessage,
		ClientIP:     rec.ClientIP,
		CreatedAt:    rec.CreatedAt,
	}
}

func toBackupInfo(info *service.BackupInfo) *v1.BackupInfo {
	return &v1.BackupInfo{
		Name:      info.Name,
		SizeBytes: info.SizeBytes,
		CreatedAt: info.CreatedAt,
	}
}

func (s *restServer) createBackup(w http.ResponseWriter, r *http.Request) {
	info, err := s.backups.CreateBackup(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBackupInfo(info))
}

func (s *restServer) listBackups(w http.ResponseWriter, r *http.Request) {
	infos, err := s.backups.ListBackups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]*v1.BackupInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, toBackupInfo(info))
	}

	writeJSON(w, http.StatusOK, v1.BackupList{Backups: out})
}

func (s *restServer) listAudit(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	records, err := s.audit.List(r.Context(), store.AuditFilter{
		Action:       query.Get("action"),
		ResourceType: query.Get("resource_type"),
		ResourceID:   query.Get("resource_id"),
		Limit:        limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]*v1.AuditRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, toAuditRecord(rec))
	}

	writeJSON(w, http.StatusOK, v1.AuditList{Records: out})
}

func (s *restServer) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, v1.Health{Status: "ok"})
}
