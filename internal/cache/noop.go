package cache

import (
	"context"

	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/google/uuid"
)

var _ LinkCache = (*Noop)(nil)
var _ QueryCache = (*Noop)(nil)

// Noop satisfies the cache interfaces without storing anything. Used when no
// redis address is configured.
type Noop struct {
}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) GetLink(ctx context.Context, id uuid.UUID) (*model.SyncLink, error) {
	return nil, ErrMiss
}

func (n *Noop) SetLink(ctx context.Context, link *model.SyncLink) error {
	return nil
}

func (n *Noop) DeleteLink(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (n *Noop) GetQueryResult(ctx context.Context, key string) (*rag.QueryResult, error) {
	return nil, ErrMiss
}

func (n *Noop) SetQueryResult(ctx context.Context, key string, result *rag.QueryResult) error {
	return nil
}
