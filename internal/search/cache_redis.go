package search

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"gamehub/searchservice/internal/domain"
)

const (
	redisSearchPrefix = "gsearch:cache:"
	redisDetailPrefix = "gsearch:detail:"
)

// RedisCacheBackend stores search pages and game details in Redis with
// JSON serialization. It is the shared second cache level behind the
// per-process memory cache.
type RedisCacheBackend struct {
	client *redis.Client
}

func NewRedisCacheBackend(client *redis.Client) *RedisCacheBackend {
	return &RedisCacheBackend{client: client}
}

func (r *RedisCacheBackend) Get(ctx context.Context, key string) (domain.SearchResult, bool, error) {
	data, err := r.client.Get(ctx, redisSearchPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.SearchResult{}, false, nil
		}
		return domain.SearchResult{}, false, err
	}
	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.SearchResult{}, false, err
	}
	return result, true, nil
}

func (r *RedisCacheBackend) Set(ctx context.Context, key string, result domain.SearchResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisSearchPrefix+key, data, ttl).Err()
}

func (r *RedisCacheBackend) GetDetail(ctx context.Context, id int) (domain.GameDetail, bool, error) {
	data, err := r.client.Get(ctx, redisDetailPrefix+strconv.Itoa(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.GameDetail{}, false, nil
		}
		return domain.GameDetail{}, false, err
	}
	var game domain.GameDetail
	if err := json.Unmarshal(data, &game); err != nil {
		return domain.GameDetail{}, false, err
	}
	return game, true, nil
}

func (r *RedisCacheBackend) SetDetail(ctx context.Context, game domain.GameDetail, ttl time.Duration) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisDetailPrefix+strconv.Itoa(game.ID), data, ttl).Err()
}

func (r *RedisCacheBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
