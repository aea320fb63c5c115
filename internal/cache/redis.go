package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shopadmin/internal/session"
)

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

const keyPrefix = "shopadmin:client:"

// RedisStore keeps client namespaces in redis. Every read or write refreshes the key
// TTL, so only idle namespaces expire.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) For(clientID string) session.Storage {
	return &redisStorage{store: s, clientID: clientID}
}

func (s *RedisStore) key(clientID, key string) string {
	return keyPrefix + clientID + ":" + key
}

type redisStorage struct {
	store    *RedisStore
	clientID string
}

func (r *redisStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	k := r.store.key(r.clientID, key)
	var v string
	var err error
	if r.store.ttl > 0 {
		// reads count as activity too
		v, err = r.store.client.GetEx(ctx, k, r.store.ttl).Result()
	} else {
		v, err = r.store.client.Get(ctx, k).Result()
	}
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (r *redisStorage) SetItem(ctx context.Context, key, value string) error {
	if err := r.store.client.Set(ctx, r.store.key(r.clientID, key), value, r.store.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *redisStorage) RemoveItem(ctx context.Context, key string) error {
	if err := r.store.client.Del(ctx, r.store.key(r.clientID, key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
