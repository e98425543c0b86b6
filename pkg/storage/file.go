package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mikeboe/hyperlex/pkg/research"
)

// FileHistory keeps the blob in a JSON file.
type FileHistory struct {
	Path string
}

// NewFileHistory stores the history under ~/.hyperlex unless path is set.
func NewFileHistory(path string) (*FileHistory, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(homeDir, ".hyperlex", HistoryKey+".json")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &FileHistory{Path: path}, nil
}

func (h *FileHistory) Save(_ context.Context, sections []research.ChatSection) error {
	data, err := encode(sections)
	if err != nil {
		return err
	}

	// write then rename so a crash never leaves a truncated blob
	tmp, err := os.CreateTemp(filepath.Dir(h.Path), ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write chat history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync chat history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close chat history: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.Path); err != nil {
		return fmt.Errorf("failed to replace chat history: %w", err)
	}
	return nil
}

func (h *FileHistory) Load(_ context.Context) ([]research.ChatSection, error) {
	data, err := os.ReadFile(h.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	return decode(data, "file"), nil
}

func (h *FileHistory) Clear(_ context.Context) error {
	err := os.Remove(h.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}
