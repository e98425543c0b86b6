package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mikeboe/hyperlex/pkg/research"
)

// HTTPError is a non-2xx answer from a collaborator.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// SearchClient posts search requests to a Tavily-compatible endpoint. The
// server points it at Tavily itself, the terminal client at the server.
type SearchClient struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	// Tavily switches the request body to Tavily's snake_case fields.
	Tavily bool
}

type tavilyRequest struct {
	Query                    string `json:"query"`
	SearchDepth              string `json:"search_depth,omitempty"`
	IncludeImages            bool   `json:"include_images"`
	IncludeImageDescriptions bool   `json:"include_image_descriptions"`
	IncludeAnswer            bool   `json:"include_answer"`
}

func NewSearchClient(endpoint, apiKey string) *SearchClient {
	return &SearchClient{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// NewTavilyClient talks to the Tavily API directly.
func NewTavilyClient(endpoint, apiKey string) *SearchClient {
	c := NewSearchClient(endpoint, apiKey)
	c.Tavily = true
	return c
}

func (c *SearchClient) requestBody(req research.SearchRequest) any {
	if !c.Tavily {
		return req
	}
	return tavilyRequest{
		Query:                    req.Query,
		SearchDepth:              req.SearchDepth,
		IncludeImages:            req.IncludeImages,
		IncludeImageDescriptions: req.IncludeImageDescriptions,
		IncludeAnswer:            true,
	}
}

// Search sends req and returns the results with images attached. An empty
// result list is reported as research.ErrNoResults.
func (c *SearchClient) Search(ctx context.Context, req research.SearchRequest) (*research.SearchResponse, error) {
	jsonBody, err := json.Marshal(c.requestBody(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("Search API returned non-2xx status code", "status", resp.StatusCode, "body", string(body))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(body, "Failed to fetch search results")}
	}

	var out research.SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search response: %w", err)
	}

	if len(out.Results) == 0 {
		return nil, research.ErrNoResults
	}

	AttachImages(&out)
	return &out, nil
}

// AttachImages gives result i the i-th image when the search returned one.
func AttachImages(resp *research.SearchResponse) {
	for i := range resp.Results {
		if i < len(resp.Images) && resp.Results[i].Image == nil {
			img := resp.Images[i]
			resp.Results[i].Image = &img
		}
	}
}

// errorMessage pulls {"error": "..."} out of a failed response body. Tavily
// nests it as {"detail": {"error": "..."}}.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Error  string `json:"error"`
		Detail struct {
			Error string `json:"error"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	switch {
	case payload.Error != "":
		return payload.Error
	case payload.Detail.Error != "":
		return payload.Detail.Error
	default:
		return fallback
	}
}

// IsNoResults reports whether err means the search came back empty, including
// when a proxy relayed that condition as an HTTP error.
func IsNoResults(err error) bool {
	if errors.Is(err, research.ErrNoResults) {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Message == research.ErrNoResults.Error()
}
