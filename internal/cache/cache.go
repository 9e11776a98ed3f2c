package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/google/uuid"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache miss")

// LinkCache caches sync link rows for hot status reads. Writers invalidate
// on every persisted change, the TTL only bounds staleness after that.
type LinkCache interface {
	// GetLink gets a link from the cache.
	GetLink(ctx context.Context, id uuid.UUID) (*model.SyncLink, error)
	// SetLink sets a link in the cache.
	SetLink(ctx context.Context, link *model.SyncLink) error
	// DeleteLink removes a link from the cache.
	DeleteLink(ctx context.Context, id uuid.UUID) error
}

// QueryCache caches retrieval responses briefly.
type QueryCache interface {
	// GetQueryResult gets a cached retrieval response.
	GetQueryResult(ctx context.Context, key string) (*rag.QueryResult, error)
	// SetQueryResult caches a retrieval response.
	SetQueryResult(ctx context.Context, key string, result *rag.QueryResult) error
}

// QueryKey builds the cache key for one store query.
func QueryKey(storeID, query string, topK int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", storeID, topK, query)))
	return fmt.Sprintf("filesearch:query:%s:%x", storeID, sum[:8])
}
