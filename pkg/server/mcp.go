package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/research/tools"
)

type WebSearchArgs struct {
	Query string `json:"query" jsonschema:"the question to search the web for"`
	Depth string `json:"depth,omitempty" jsonschema:"basic or advanced, defaults to advanced"`
}

type WebSearchResult struct {
	Results []research.SearchResult `json:"results"`
	Answer  string                  `json:"answer,omitempty"`
}

type TopStoriesArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of stories, defaults to 30, at most 100"`
}

type TopStoriesResult struct {
	Stories []tools.Story `json:"stories"`
}

// NewMCPServer exposes web search and Hacker News as MCP tools.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "hyperlex-mcp", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "web_search",
		Description: "Search the web and return ranked results with excerpts.",
	}, h.webSearchTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "top_stories",
		Description: "List the current top Hacker News stories in rank order.",
	}, h.topStoriesTool)

	return server
}

// MCPHandler serves the MCP server over streamable HTTP.
func (h *Handler) MCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func (h *Handler) webSearchTool(ctx context.Context, _ *mcp.CallToolRequest, args WebSearchArgs) (*mcp.CallToolResult, WebSearchResult, error) {
	if args.Query == "" {
		return nil, WebSearchResult{}, research.ErrEmptyQuery
	}
	depth := args.Depth
	if depth == "" {
		depth = "advanced"
	}

	resp, err := h.Search.Search(ctx, research.SearchRequest{Query: args.Query, SearchDepth: depth})
	if err != nil {
		return nil, WebSearchResult{}, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: research.SourcesTable(resp.Results)}},
	}, WebSearchResult{Results: resp.Results, Answer: resp.Answer}, nil
}

func (h *Handler) topStoriesTool(ctx context.Context, _ *mcp.CallToolRequest, args TopStoriesArgs) (*mcp.CallToolResult, TopStoriesResult, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultStoryLimit
	}
	limit = min(limit, maxStoryLimit)
	stories, err := h.Stories.TopStories(ctx, limit)
	if err != nil {
		return nil, TopStoriesResult{}, fmt.Errorf("failed to fetch top stories: %w", err)
	}
	return nil, TopStoriesResult{Stories: stories}, nil
}
