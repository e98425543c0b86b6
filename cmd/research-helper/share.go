package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/server"
)

// shareSection publishes cs on the server and returns its public URL.
func shareSection(ctx context.Context, base string, cs research.ChatSection) (string, error) {
	base = strings.TrimRight(base, "/")
	payload, err := json.Marshal(server.SharedChat{
		Query:         cs.Query,
		Response:      cs.Response,
		SearchResults: cs.SearchResults,
		Reasoning:     cs.Reasoning,
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal shared chat: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/share", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to share chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to share chat: status %d", resp.StatusCode)
	}

	var created struct {
		ShareID string `json:"shareId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode share response: %w", err)
	}
	if created.ShareID == "" {
		return "", fmt.Errorf("failed to share chat: empty share id")
	}
	return base + "/api/share/" + created.ShareID, nil
}

// pickSection resolves a 1-based question number as typed by the user.
func pickSection(sections []research.ChatSection, arg string) (research.ChatSection, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(sections) {
		return research.ChatSection{}, fmt.Errorf("no question %q, pick 1-%d", strings.TrimSpace(arg), len(sections))
	}
	cs := sections[n-1]
	if cs.Loading() {
		return research.ChatSection{}, fmt.Errorf("question %d is still running", n)
	}
	return cs, nil
}

func shareFromHistory(ctx context.Context, history research.History, arg string) (string, error) {
	sections, err := history.Load(ctx)
	if err != nil {
		return "", err
	}
	cs, err := pickSection(sections, arg)
	if err != nil {
		return "", err
	}
	return shareSection(ctx, serverURL, cs)
}
