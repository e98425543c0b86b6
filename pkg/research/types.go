package research

import (
	"encoding/json"
	"errors"
)

var (
	// ErrNoResults is returned when the search collaborator finds nothing.
	ErrNoResults = errors.New("No relevant search results found. Please try a different query.")
	// ErrEmptyQuery is returned when a blank query is submitted.
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrReportFailed is returned when the chat endpoint refuses the request.
	ErrReportFailed = errors.New("Failed to generate report. Please try again.")
	// ErrSectionNotFound is returned for an index outside the conversation.
	ErrSectionNotFound = errors.New("chat section not found")
	// ErrStaleSection is returned when a writer no longer owns its section.
	ErrStaleSection = errors.New("chat section is no longer owned by this request")
)

// Image is an optional picture attached to a search result.
type Image struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts a bare URL string as well as the object form; the
// search API sends strings unless image descriptions were requested.
func (img *Image) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		*img = Image{URL: url}
		return nil
	}
	type plain Image
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*img = Image(p)
	return nil
}

// SearchResult represents a single search result
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Snippet string `json:"snippet,omitempty"`
	Image   *Image `json:"image,omitempty"`
}

// SearchRequest is the body sent to the search collaborator.
type SearchRequest struct {
	Query                    string `json:"query"`
	IncludeImages            bool   `json:"includeImages"`
	IncludeImageDescriptions bool   `json:"includeImageDescriptions"`
	SearchDepth              string `json:"search_depth"`
}

// SearchResponse is the search collaborator's answer.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Images  []Image        `json:"images,omitempty"`
	Answer  string         `json:"answer,omitempty"`
}

// ChatSection is one query/response turn in the conversation. It is also the
// persisted shape of the chat history.
type ChatSection struct {
	Query                string         `json:"query"`
	SearchResults        []SearchResult `json:"searchResults"`
	Reasoning            string         `json:"reasoning"`
	Response             string         `json:"response"`
	Error                *string        `json:"error"`
	IsLoadingSources     bool           `json:"isLoadingSources"`
	IsLoadingThinking    bool           `json:"isLoadingThinking"`
	IsReasoningCollapsed bool           `json:"isReasoningCollapsed,omitempty"`
}

// Loading reports whether the section still waits on a collaborator.
func (s ChatSection) Loading() bool {
	return s.IsLoadingSources || s.IsLoadingThinking
}

// Message is a transient record used to build the next model call.
type Message struct {
	Role          string         `json:"role"`
	Content       string         `json:"content"`
	Reasoning     string         `json:"reasoning,omitempty"`
	SearchResults []SearchResult `json:"searchResults,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
