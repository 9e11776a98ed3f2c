package server

import (
	"encoding/json"
	"errors"
	"net/http"

	v1 "github.com/emrgen/filesearch/apis/v1"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/emrgen/filesearch/internal/service"
	"github.com/emrgen/filesearch/internal/source"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("write response: %v", err)
	}
}

// writeError maps the service error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve), errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrLinkNotFound),
		errors.Is(err, rag.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrStoreInUse),
		errors.Is(err, service.ErrNotSynced):
		status = http.StatusConflict
	case errors.Is(err, source.ErrAuthRequired), errors.Is(err, rag.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, source.ErrUnavailable):
		status = http.StatusFailedDependency
	case errors.Is(err, rag.ErrBackend):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logrus.Errorf("request failed: %v", err)
	}

	writeJSON(w, status, v1.ErrorResponse{Error: err.Error()})
}
