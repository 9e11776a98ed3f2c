package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	v1 "github.com/emrgen/filesearch/apis/v1"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/go-chi/chi/v5"
)

func toStore(s *rag.Store) *v1.Store {
	return &v1.Store{
		ID:            s.ID,
		DisplayName:   s.DisplayName,
		CreateTime:    s.CreateTime,
		DocumentCount: s.DocumentCount,
	}
}

func toDocument(d *rag.Document) *v1.Document {
	return &v1.Document{
		ID:          d.ID,
		StoreID:     d.StoreID,
		DisplayName: d.DisplayName,
		Metadata:    d.Metadata,
		SizeBytes:   d.SizeBytes,
		CreateTime:  d.CreateTime,
	}
}

func toQueryResult(res *rag.QueryResult) *v1.QueryResult {
	chunks := make([]*v1.Chunk, 0, len(res.Chunks))
	for _, c := range res.Chunks {
		chunks = append(chunks, &v1.Chunk{
			DocumentID:   c.DocumentID,
			DocumentName: c.DocumentName,
			Content:      c.Content,
			Score:        c.Score,
		})
	}

	return &v1.QueryResult{Query: res.Query, Chunks: chunks}
}

func (s *restServer) createStore(w http.ResponseWriter, r *http.Request) {
	var req v1.CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "invalid json: " + err.Error()})
		return
	}

	created, err := s.stores.CreateStore(r.Context(), req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toStore(created))
}

func (s *restServer) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := s.stores.ListStores(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]*v1.Store, 0, len(stores))
	for _, st := range stores {
		out = append(out, toStore(st))
	}

	writeJSON(w, http.StatusOK, v1.StoreList{Stores: out})
}

func (s *restServer) getStore(w http.ResponseWriter, r *http.Request) {
	store, err := s.stores.GetStore(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStore(store))
}

func (s *restServer) deleteStore(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	if err := s.stores.DeleteStore(r.Context(), chi.URLParam(r, "storeID"), force); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *restServer) uploadDocument(w http.ResponseWriter, r *http.Request) {
	filename, content, err := readUpload(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: err.Error()})
		return
	}

	displayName := r.FormValue("display_name")
	if displayName == "" {
		displayName = filename
	}

	var metadata map[string]string
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "invalid metadata: " + err.Error()})
			return
		}
	}

	doc, err := s.documents.UploadDocument(r.Context(), chi.URLParam(r, "storeID"), displayName, content, metadata)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocument(doc))
}

func (s *restServer) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.ListDocuments(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]*v1.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocument(doc))
	}

	writeJSON(w, http.StatusOK, v1.DocumentList{Documents: out})
}

func (s *restServer) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.GetDocument(r.Context(), chi.URLParam(r, "storeID"), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDocument(doc))
}

func (s *restServer) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.DeleteDocument(r.Context(), chi.URLParam(r, "storeID"), chi.URLParam(r, "documentID")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *restServer) queryStore(w http.ResponseWriter, r *http.Request) {
	var req v1.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "invalid json: " + err.Error()})
		return
	}

	result, err := s.queries.Query(r.Context(), chi.URLParam(r, "storeID"), req.Query, req.TopK, req.MetadataFilter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQueryResult(result))
}
