package main

import (
	"context"
	"fmt"

	"github.com/mikeboe/hyperlex/pkg/config"
	"github.com/mikeboe/hyperlex/pkg/database"
	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/storage"
)

// openHistory returns the configured history backend and a func releasing
// its connections.
func openHistory(ctx context.Context, cfg *config.Config) (research.History, func(), error) {
	switch cfg.HistoryBackend {
	case config.HistoryFile, "":
		h, err := storage.NewFileHistory(cfg.HistoryPath)
		if err != nil {
			return nil, nil, err
		}
		return h, func() {}, nil

	case config.HistoryRedis:
		if cfg.RedisURL == "" {
			return nil, nil, fmt.Errorf("HISTORY_BACKEND=redis requires REDIS_URL")
		}
		h, err := storage.NewRedisHistory(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return h, func() { _ = h.Close() }, nil

	case config.HistoryPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("HISTORY_BACKEND=postgres requires DATABASE_URL")
		}
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return storage.NewPostgresHistory(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown history backend: %s", cfg.HistoryBackend)
	}
}
