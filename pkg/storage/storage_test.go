package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/hyperlex/pkg/database"
	"github.com/mikeboe/hyperlex/pkg/research"
)

func sampleHistory() []research.ChatSection {
	failed := "Failed to generate report. Please try again."
	return []research.ChatSection{
		{
			Query:         "Tech News",
			SearchResults: []research.SearchResult{{Title: "A", URL: "https://a.example", Content: "alpha"}},
			Reasoning:     "thinking",
			Response:      "See [Source 1].",
		},
		{
			Query:                "Follow up",
			Error:                &failed,
			IsReasoningCollapsed: true,
		},
	}
}

func exerciseHistory(t *testing.T, h research.History) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, h.Clear(ctx))
	got, err := h.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	want := sampleHistory()
	require.NoError(t, h.Save(ctx, want))
	got, err = h.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// saving replaces the blob wholesale
	require.NoError(t, h.Save(ctx, want[:1]))
	got, err = h.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want[:1], got)

	require.NoError(t, h.Clear(ctx))
	got, err = h.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileHistory(t *testing.T) {
	h, err := NewFileHistory(filepath.Join(t.TempDir(), "nested", "history.json"))
	require.NoError(t, err)
	exerciseHistory(t, h)
}

func TestFileHistoryCorruptBlobLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	h, err := NewFileHistory(path)
	require.NoError(t, err)

	got, err := h.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileHistorySavesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	h, err := NewFileHistory(path)
	require.NoError(t, err)

	require.NoError(t, h.Save(context.Background(), nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRedisHistory(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	h, err := NewRedisHistory(context.Background(), url)
	require.NoError(t, err)
	defer h.Close()

	h.Key = HistoryKey + "_test"
	exerciseHistory(t, h)
}

func TestPostgresHistory(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.InitSchema(ctx))

	h := NewPostgresHistory(db)
	h.Key = HistoryKey + "_test"
	exerciseHistory(t, h)
}
