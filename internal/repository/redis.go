package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "funbot:"

// RedisStore stores state blobs as plain Redis strings.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore builds a store on the given client. ttl <= 0 keeps keys forever.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("repository: redis client must not be nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		tracer: otel.Tracer("fun-bot.internal.repository.redis"),
	}, nil
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

// Get reads the blob stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := s.tracer.Start(ctx, "repository.redis.get")
	defer span.End()

	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		span.RecordError(err)
		return nil, false, fmt.Errorf("repository: redis get %q: %w", key, err)
	}
	return data, true, nil
}

// Put replaces the blob stored under key.
func (s *RedisStore) Put(ctx context.Context, key string, blob []byte) error {
	ctx, span := s.tracer.Start(ctx, "repository.redis.put")
	defer span.End()

	if err := s.client.Set(ctx, redisKey(key), blob, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("repository: redis set %q: %w", key, err)
	}
	return nil
}
