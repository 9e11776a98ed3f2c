package service

import (
	"context"
	"testing"

	"github.com/emrgen/filesearch/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryService_Query(t *testing.T) {
	e := newEnv("store-1")
	queries := NewQueryService(e.backend, cache.NewNoop(), e.audit)

	result, err := queries.Query(context.TODO(), "store-1", "rollout plan", 3, nil)
	require.NoError(t, err)

	assert.Equal(t, "rollout plan", result.Query)
	assert.Len(t, result.Chunks, 1)
	assert.Equal(t, 3, e.backend.lastQueryTopK)
}

func TestQueryService_Query_Defaults(t *testing.T) {
	e := newEnv("store-1")
	queries := NewQueryService(e.backend, cache.NewNoop(), e.audit)

	_, err := queries.Query(context.TODO(), "store-1", "rollout plan", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, e.backend.lastQueryTopK)

	_, err = queries.Query(context.TODO(), "store-1", "", 3, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "query", verr.Field)
}
