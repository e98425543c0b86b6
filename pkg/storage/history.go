// Package storage persists the chat history as a single JSON blob under one
// fixed key. The blob has no version field: it is replaced wholesale on save,
// read wholesale on load and deleted on clear.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mikeboe/hyperlex/pkg/research"
)

var (
	_ research.History = (*FileHistory)(nil)
	_ research.History = (*RedisHistory)(nil)
	_ research.History = (*PostgresHistory)(nil)
)

// HistoryKey names the blob in every backend.
const HistoryKey = "hyperlex_chat_history"

func encode(sections []research.ChatSection) ([]byte, error) {
	if sections == nil {
		sections = []research.ChatSection{}
	}
	data, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat history: %w", err)
	}
	return data, nil
}

// decode treats an unreadable blob as an empty history.
func decode(data []byte, backend string) []research.ChatSection {
	if len(data) == 0 {
		return nil
	}
	var sections []research.ChatSection
	if err := json.Unmarshal(data, &sections); err != nil {
		slog.Error("Error loading chat history", "backend", backend, "error", err)
		return nil
	}
	return sections
}
