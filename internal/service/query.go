package service

import (
	"context"

	"github.com/emrgen/filesearch/internal/cache"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/sirupsen/logrus"
)

const defaultTopK = 5

// NewQueryService creates a new retrieval service.
func NewQueryService(backend rag.Backend, queries cache.QueryCache, audit *AuditService) *QueryService {
	return &QueryService{
		backend: backend,
		cache:   queries,
		audit:   audit,
	}
}

// QueryService runs retrieval queries against a store. Unfiltered queries
// are cached briefly, filtered ones always hit the backend.
type QueryService struct {
	backend rag.Backend
	cache   cache.QueryCache
	audit   *AuditService
}

// Query retrieves the topK most relevant chunks for a query.
func (q *QueryService) Query(ctx context.Context, storeID, query string, topK int, filter map[string]string) (*rag.QueryResult, error) {
	if query == "" {
		return nil, validationErr("query", "must not be empty")
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	key := cache.QueryKey(storeID, query, topK)
	if len(filter) == 0 {
		if result, err := q.cache.GetQueryResult(ctx, key); err == nil {
			return result, nil
		}
	}

	result, err := q.backend.Query(ctx, storeID, query, topK, filter)
	if err != nil {
		return nil, err
	}

	if len(filter) == 0 {
		if err := q.cache.SetQueryResult(ctx, key, result); err != nil {
			logrus.Debugf("cache query result: %v", err)
		}
	}

	q.audit.Record(ctx, AuditQueryRun, "store", storeID, map[string]any{
		"query":  query,
		"top_k":  topK,
		"chunks": len(result.Chunks),
	}, nil)

	return result, nil
}
