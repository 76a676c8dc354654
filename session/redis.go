package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps sessions under "session:<id>" keys that expire with the session.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, id string) (Data, error) {
	raw, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Data{}, ErrNotFound
		}
		return Data{}, err
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, ErrNotFound
	}
	if data.expired(time.Now()) {
		return Data{}, ErrNotFound
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, data Data) error {
	ttl := time.Until(data.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, id)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKey(id), raw, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKey(id)).Err()
}

func redisKey(id string) string {
	return "session:" + id
}
