package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mikeboe/hyperlex/pkg/database"
	"github.com/mikeboe/hyperlex/pkg/research"
)

var ErrShareNotFound = errors.New("shared chat not found")

// SharedChat is the public snapshot of one section.
type SharedChat struct {
	Query         string                  `json:"query"`
	Response      string                  `json:"response"`
	SearchResults []research.SearchResult `json:"searchResults"`
	Reasoning     string                  `json:"reasoning"`
	Timestamp     time.Time               `json:"timestamp"`
}

type ShareStore interface {
	Create(ctx context.Context, chat SharedChat) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*SharedChat, error)
}

// ShareService stores shared chats in the shared_chats table.
type ShareService struct {
	DB *database.PostgresDB
}

func NewShareService(db *database.PostgresDB) *ShareService {
	return &ShareService{DB: db}
}

func (s *ShareService) Create(ctx context.Context, chat SharedChat) (uuid.UUID, error) {
	data, err := json.Marshal(chat)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal shared chat: %w", err)
	}

	id := uuid.New()
	query := `INSERT INTO shared_chats (id, data) VALUES ($1, $2)`
	if _, err := s.DB.Pool.Exec(ctx, query, id, data); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create shared chat: %w", err)
	}
	return id, nil
}

func (s *ShareService) Get(ctx context.Context, id uuid.UUID) (*SharedChat, error) {
	var data []byte
	err := s.DB.Pool.QueryRow(ctx, `SELECT data FROM shared_chats WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shared chat: %w", err)
	}

	chat := &SharedChat{}
	if err := json.Unmarshal(data, chat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shared chat: %w", err)
	}
	return chat, nil
}
