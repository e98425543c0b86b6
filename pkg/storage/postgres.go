package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mikeboe/hyperlex/pkg/database"
	"github.com/mikeboe/hyperlex/pkg/research"
)

// PostgresHistory keeps the blob as one row of the kv_store table.
type PostgresHistory struct {
	DB  *database.PostgresDB
	Key string
}

func NewPostgresHistory(db *database.PostgresDB) *PostgresHistory {
	return &PostgresHistory{DB: db, Key: HistoryKey}
}

func (h *PostgresHistory) Save(ctx context.Context, sections []research.ChatSection) error {
	data, err := encode(sections)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := h.DB.Pool.Exec(ctx, query, h.Key, data); err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Load(ctx context.Context) ([]research.ChatSection, error) {
	var data []byte
	err := h.DB.Pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, h.Key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return decode(data, "postgres"), nil
}

func (h *PostgresHistory) Clear(ctx context.Context) error {
	if _, err := h.DB.Pool.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, h.Key); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}
