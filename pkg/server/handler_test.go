package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/hyperlex/pkg/chat"
	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/research/tools"
	"github.com/mikeboe/hyperlex/pkg/stream"
)

type stubSearcher struct {
	resp *research.SearchResponse
	err  error
	got  research.SearchRequest
}

func (s *stubSearcher) Search(_ context.Context, req research.SearchRequest) (*research.SearchResponse, error) {
	s.got = req
	return s.resp, s.err
}

type stubProvider struct {
	deltas []stream.Delta
	err    error
}

func (p *stubProvider) Stream(_ context.Context, _ []research.Message, emit chat.EmitFunc) error {
	for _, d := range p.deltas {
		if err := emit(d); err != nil {
			return err
		}
	}
	return p.err
}

type countingStories struct {
	calls  int
	limits []int
}

func (s *countingStories) TopStories(_ context.Context, limit int) ([]tools.Story, error) {
	s.calls++
	s.limits = append(s.limits, limit)
	stories := make([]tools.Story, limit)
	for i := range stories {
		stories[i] = tools.Story{ID: i + 1, Title: "story"}
	}
	return stories, nil
}

type memoryShares struct {
	mu    sync.Mutex
	chats map[uuid.UUID]SharedChat
}

func (m *memoryShares) Create(_ context.Context, c SharedChat) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.chats[id] = c
	return id, nil
}

func (m *memoryShares) Get(_ context.Context, id uuid.UUID) (*SharedChat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return nil, ErrShareNotFound
	}
	return &c, nil
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(nil))
	h.RegisterRoutes(r)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchRoute(t *testing.T) {
	search := &stubSearcher{resp: &research.SearchResponse{Results: []research.SearchResult{{Title: "A", URL: "https://a"}}}}
	r := newTestRouter(NewHandler(search, nil, nil, nil, 0))

	w := doJSON(r, http.MethodPost, "/api/search", research.SearchRequest{Query: "Tech News", IncludeImages: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "advanced", search.got.SearchDepth)
	assert.True(t, search.got.IncludeImages)

	var resp research.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A", resp.Results[0].Title)
}

func TestSearchRouteErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"no results", research.ErrNoResults, http.StatusUnprocessableEntity, research.ErrNoResults.Error()},
		{"upstream", &tools.HTTPError{StatusCode: 401, Message: "Unauthorized"}, http.StatusInternalServerError, "Unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(NewHandler(&stubSearcher{err: tt.err}, nil, nil, nil, 0))
			w := doJSON(r, http.MethodPost, "/api/search", research.SearchRequest{Query: "q"})
			assert.Equal(t, tt.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestChatRouteStreamsRecords(t *testing.T) {
	provider := &stubProvider{deltas: []stream.Delta{
		stream.ReasoningDelta{Text: "hmm"},
		stream.ContentDelta{Text: "Hello"},
	}}
	r := newTestRouter(NewHandler(nil, chat.NewService(provider), nil, nil, 0))

	w := doJSON(r, http.MethodPost, "/api/chat", gin.H{"messages": []research.Message{{Role: "user", Content: "hi"}}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	res, err := stream.NewConsumer(nil).Consume(context.Background(), w.Body, nil)
	require.NoError(t, err)
	assert.Equal(t, "hmm", res.Reasoning)
	assert.Equal(t, "Hello", res.Content)
}

func TestChatRouteErrorBeforeFirstRecord(t *testing.T) {
	provider := &stubProvider{err: errors.New("model unavailable")}
	r := newTestRouter(NewHandler(nil, chat.NewService(provider), nil, nil, 0))

	w := doJSON(r, http.MethodPost, "/api/chat", gin.H{"messages": []research.Message{{Role: "user", Content: "hi"}}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "model unavailable")
}

func TestChatRouteErrorAfterFirstRecordKeepsStream(t *testing.T) {
	provider := &stubProvider{deltas: []stream.Delta{stream.ContentDelta{Text: "part"}}, err: errors.New("cut off")}
	r := newTestRouter(NewHandler(nil, chat.NewService(provider), nil, nil, 0))

	w := doJSON(r, http.MethodPost, "/api/chat", gin.H{"messages": []research.Message{{Role: "user", Content: "hi"}}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "cut off")
	assert.Contains(t, w.Body.String(), "part")
}

func TestChatRouteRejectsEmptyMessages(t *testing.T) {
	r := newTestRouter(NewHandler(nil, chat.NewService(&stubProvider{}), nil, nil, 0))
	w := doJSON(r, http.MethodPost, "/api/chat", gin.H{"messages": []research.Message{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHackerNewsRouteCaches(t *testing.T) {
	stories := &countingStories{}
	r := newTestRouter(NewHandler(nil, nil, stories, nil, time.Minute))

	for i := 0; i < 3; i++ {
		w := doJSON(r, http.MethodGet, "/api/hackernews?limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []tools.Story
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 5)
	}
	assert.Equal(t, 1, stories.calls)

	w := doJSON(r, http.MethodGet, "/api/hackernews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, stories.calls)

	w = doJSON(r, http.MethodGet, "/api/hackernews?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHackerNewsRouteClampsLimit(t *testing.T) {
	stories := &countingStories{}
	r := newTestRouter(NewHandler(nil, nil, stories, nil, time.Minute))

	for _, limit := range []string{"500", "101", "100000"} {
		w := doJSON(r, http.MethodGet, "/api/hackernews?limit="+limit, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []tools.Story
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, maxStoryLimit)
	}
	assert.Equal(t, []int{maxStoryLimit}, stories.limits, "oversized limits share one cache entry")
}

func TestShareRoutes(t *testing.T) {
	shares := &memoryShares{chats: map[uuid.UUID]SharedChat{}}
	r := newTestRouter(NewHandler(nil, nil, nil, shares, 0))

	w := doJSON(r, http.MethodPost, "/api/share", SharedChat{Query: "Tech News", Response: "answer"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created["shareId"])

	w = doJSON(r, http.MethodGet, "/api/share/"+created["shareId"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got SharedChat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Tech News", got.Query)
	assert.False(t, got.Timestamp.IsZero())

	w = doJSON(r, http.MethodGet, "/api/share/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/share/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShareRoutesWithoutDatabase(t *testing.T) {
	r := newTestRouter(NewHandler(nil, nil, nil, nil, 0))
	w := doJSON(r, http.MethodPost, "/api/share", SharedChat{Query: "q"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(NewHandler(nil, nil, nil, nil, 0))
	w := doJSON(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
