package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const hackerNewsBaseURL = "https://hacker-news.firebaseio.com/v0"

// Story is a Hacker News item as returned by the Firebase API.
type Story struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Descendants int    `json:"descendants"`
}

type HackerNewsClient struct {
	BaseURL     string
	HTTPClient  *http.Client
	Concurrency int
}

func NewHackerNewsClient() *HackerNewsClient {
	return &HackerNewsClient{
		BaseURL:     hackerNewsBaseURL,
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
		Concurrency: 8,
	}
}

// TopStories returns up to limit stories in front-page rank order.
func (c *HackerNewsClient) TopStories(ctx context.Context, limit int) ([]Story, error) {
	if limit <= 0 {
		limit = 30
	}

	var ids []int
	if err := c.getJSON(ctx, c.BaseURL+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("failed to fetch top stories: %w", err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	stories := make([]Story, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := c.getJSON(gctx, fmt.Sprintf("%s/item/%d.json", c.BaseURL, id), &stories[i]); err != nil {
				return fmt.Errorf("failed to fetch story %d: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stories, nil
}

func (c *HackerNewsClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("API returned non-200 status code: %d", resp.StatusCode)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
