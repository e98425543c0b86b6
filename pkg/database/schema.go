package database

import (
	"context"
	"fmt"
)

func (db *PostgresDB) InitSchema(ctx context.Context) error {
	// 1. Key/value blobs (chat history)
	kvQuery := `
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if _, err := db.Pool.Exec(ctx, kvQuery); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}

	// 2. Shared chats
	sharedQuery := `
		CREATE TABLE IF NOT EXISTS shared_chats (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			data JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if _, err := db.Pool.Exec(ctx, sharedQuery); err != nil {
		return fmt.Errorf("failed to create shared_chats table: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_shared_chats_created_at ON shared_chats(created_at DESC)"); err != nil {
		return fmt.Errorf("failed to create index on shared_chats: %w", err)
	}

	return nil
}
