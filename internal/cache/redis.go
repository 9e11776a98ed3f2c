package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

func linkKey(id string) string {
	return "filesearch:link:" + id
}

var _ LinkCache = (*Redis)(nil)
var _ QueryCache = (*Redis)(nil)

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(addr string, ttl time.Duration) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password set
		DB:       0,  // Use default DB
		Protocol: 2,  // Connection protocol
	})

	if ttl <= 0 {
		ttl = time.Minute
	}

	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) GetLink(ctx context.Context, id uuid.UUID) (*model.SyncLink, error) {
	res := r.client.Get(ctx, linkKey(id.String()))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, ErrMiss
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	link := &model.SyncLink{}
	if err := json.Unmarshal(buf, link); err != nil {
		return nil, err
	}

	return link, nil
}

func (r *Redis) SetLink(ctx context.Context, link *model.SyncLink) error {
	return r.client.Set(ctx, linkKey(link.ID), link, r.ttl).Err()
}

func (r *Redis) DeleteLink(ctx context.Context, id uuid.UUID) error {
	return r.client.Del(ctx, linkKey(id.String())).Err()
}

func (r *Redis) GetQueryResult(ctx context.Context, key string) (*rag.QueryResult, error) {
	res := r.client.Get(ctx, key)
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, ErrMiss
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	result := &rag.QueryResult{}
	if err := json.Unmarshal(buf, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Redis) SetQueryResult(ctx context.Context, key string, result *rag.QueryResult) error {
	marshal, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, key, marshal, r.ttl).Err()
}
