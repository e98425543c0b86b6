package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mikeboe/hyperlex/pkg/research"
)

// RedisHistory keeps the blob under HistoryKey in Redis.
type RedisHistory struct {
	Client redis.UniversalClient
	Key    string
}

// NewRedisHistory connects to redisURL. A URL that does not parse is used as
// a plain host:port address.
func NewRedisHistory(ctx context.Context, redisURL string) (*RedisHistory, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisHistory{Client: client, Key: HistoryKey}, nil
}

func (h *RedisHistory) Save(ctx context.Context, sections []research.ChatSection) error {
	data, err := encode(sections)
	if err != nil {
		return err
	}
	if err := h.Client.Set(ctx, h.Key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	return nil
}

func (h *RedisHistory) Load(ctx context.Context) ([]research.ChatSection, error) {
	data, err := h.Client.Get(ctx, h.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return decode(data, "redis"), nil
}

func (h *RedisHistory) Clear(ctx context.Context) error {
	if err := h.Client.Del(ctx, h.Key).Err(); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}

func (h *RedisHistory) Close() error {
	return h.Client.Close()
}
