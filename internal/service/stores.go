package service

import (
	"context"
	"fmt"

	"github.com/emrgen/filesearch/internal/rag"
	"github.com/emrgen/filesearch/internal/store"
)

// NewStoreService creates a new store management service.
func NewStoreService(backend rag.Backend, store store.Store, audit *AuditService) *StoreService {
	return &StoreService{
		backend: backend,
		store:   store,
		audit:   audit,
	}
}

// StoreService manages the hosted File Search stores. The stores live in the
// hosted service, the console only guards deletes against dangling links.
type StoreService struct {
	backend rag.Backend
	store   store.Store
	audit   *AuditService
}

// CreateStore creates a hosted store under the given display name.
func (s *StoreService) CreateStore(ctx context.Context, displayName string) (*rag.Store, error) {
	if displayName == "" {
		return nil, validationErr("display_name", "must not be empty")
	}

	created, err := s.backend.CreateStore(ctx, displayName)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditStoreCreated, "store", created.ID, map[string]any{
		"display_name": displayName,
	}, nil)

	return created, nil
}

// ListStores lists the hosted stores.
func (s *StoreService) ListStores(ctx context.Context) ([]*rag.Store, error) {
	return s.backend.ListStores(ctx)
}

// GetStore reads one hosted store.
func (s *StoreService) GetStore(ctx context.Context, id string) (*rag.Store, error) {
	return s.backend.GetStore(ctx, id)
}

// DeleteStore deletes a hosted store. Stores still targeted by sync links
// are refused unless force is set. A forced delete leaves the links behind,
// their next attempt fails visibly instead of writing into a gone store.
func (s *StoreService) DeleteStore(ctx context.Context, id string, force bool) error {
	if !force {
		count, err := s.store.CountSyncLinksForStore(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d links target %s", ErrStoreInUse, count, id)
		}
	}

	if err := s.backend.DeleteStore(ctx, id, force); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditStoreDeleted, "store", id, map[string]any{
		"force": force,
	}, nil)

	return nil
}
