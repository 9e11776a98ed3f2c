package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	v1 "github.com/emrgen/filesearch/apis/v1"
	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxUploadBytes bounds replace and document upload bodies.
const maxUploadBytes = 32 << 20

func toLink(link *model.SyncLink) *v1.Link {
	meta, err := link.Metadata()
	if err != nil {
		meta = nil
	}

	return &v1.Link{
		ID:                      link.ID,
		SourceKind:              link.SourceKind,
		SourceReference:         link.SourceReference,
		DestinationStore:        link.DestinationStore,
		DisplayName:             link.DisplayName,
		SyncMode:                link.SyncMode,
		SyncIntervalMinutes:     link.SyncIntervalMinutes,
		CurrentVersion:          link.CurrentVersion,
		CurrentRemoteDocumentID: link.CurrentRemoteDocumentID,
		ContentFingerprint:      link.ContentFingerprint,
		Status:                  link.Status,
		ErrorMessage:            link.ErrorMessage,
		LastSyncedAt:            link.LastSyncedAt,
		CustomMetadata:          meta,
		ProjectID:               link.ProjectID,
		CreatedAt:               link.CreatedAt,
		UpdatedAt:               link.UpdatedAt,
	}
}

func toLinks(links []*model.SyncLink) []*v1.Link {
	out := make([]*v1.Link, 0, len(links))
	for _, link := range links {
		out = append(out, toLink(link))
	}
	return out
}

func toHistory(h *service.History) *v1.History {
	records := make([]*v1.VersionRecord, 0, len(h.Records))
	for _, rec := range h.Records {
		records = append(records, &v1.VersionRecord{
			LinkID:           rec.LinkID,
			VersionNumber:    rec.VersionNumber,
			RemoteDocumentID: rec.RemoteDocumentID,
			ReplacedAt:       rec.ReplacedAt,
		})
	}

	return &v1.History{
		LinkID:         h.LinkID,
		CurrentVersion: h.CurrentVersion,
		Records:        records,
	}
}

func (s *restServer) createLink(w http.ResponseWriter, r *http.Request) {
	var req v1.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "invalid json: " + err.Error()})
		return
	}

	link, err := s.links.CreateLink(r.Context(), &service.CreateLinkRequest{
		SourceKind:          req.SourceKind,
		SourceReference:     req.SourceReference,
		DestinationStore:    req.DestinationStore,
		DisplayName:         req.DisplayName,
		SyncMode:            req.SyncMode,
		SyncIntervalMinutes: req.SyncIntervalMinutes,
		CustomMetadata:      req.CustomMetadata,
		ProjectID:           req.ProjectID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLink(link))
}

func (s *restServer) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.links.ListLinks(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, v1.LinkList{Links: toLinks(links)})
}

func (s *restServer) getLink(w http.ResponseWriter, r *http.Request) {
	link, err := s.links.GetLink(r.Context(), chi.URLParam(r, "linkID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLink(link))
}

func (s *restServer) deleteLink(w http.ResponseWriter, r *http.Request) {
	deleteFromStore, _ := strconv.ParseBool(r.URL.Query().Get("delete_from_store"))

	if err := s.links.DeleteLink(r.Context(), chi.URLParam(r, "linkID"), deleteFromStore); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *restServer) syncLink(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	link, err := s.syncer.SyncNow(r.Context(), chi.URLParam(r, "linkID"), force)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLink(link))
}

func (s *restServer) replaceFile(w http.ResponseWriter, r *http.Request) {
	filename, content, err := readUpload(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: err.Error()})
		return
	}

	link, err := s.syncer.ReplaceFile(r.Context(), chi.URLParam(r, "linkID"), filename, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLink(link))
}

func (s *restServer) linkHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.links.GetHistory(r.Context(), chi.URLParam(r, "linkID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toHistory(history))
}

// readUpload pulls the file part out of a multipart form.
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}

	return header.Filename, content, nil
}
