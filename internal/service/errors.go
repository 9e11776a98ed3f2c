package service

import (
	"errors"
	"fmt"
)

var (
	// ErrLinkNotFound is returned when a sync link does not exist.
	ErrLinkNotFound = errors.New("sync link not found")
	// ErrConflict is returned when a sync is requested on a link that is
	// already syncing. The request is rejected, never queued.
	ErrConflict = errors.New("sync already in progress")
	// ErrNotSynced is returned when a replace is requested on a link that has
	// no live remote document yet.
	ErrNotSynced = errors.New("link has no synced document")
	// ErrStoreInUse is returned when a store delete is refused because sync
	// links still target the store.
	ErrStoreInUse = errors.New("store has active sync links")
	// ErrValidation is returned when a create request is malformed. Nothing
	// is persisted.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports which create field was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
