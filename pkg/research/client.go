package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ChatClient calls a chat completion endpoint that answers with a
// newline-delimited JSON stream.
type ChatClient struct {
	Endpoint   string
	HTTPClient *http.Client
}

func NewChatClient(endpoint string) *ChatClient {
	// no client timeout: the body is read for as long as the model streams
	return &ChatClient{Endpoint: endpoint, HTTPClient: &http.Client{}}
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stream posts messages and returns the response body for the caller to
// consume and close.
func (c *ChatClient) Stream(ctx context.Context, messages []Message) (io.ReadCloser, error) {
	payload := chatRequest{Messages: make([]chatMessage, len(messages))}
	for i, m := range messages {
		payload.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrReportFailed, resp.StatusCode, string(body))
	}

	return resp.Body, nil
}
