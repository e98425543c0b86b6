package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/mikeboe/hyperlex/pkg/chat"
	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/research/tools"
)

const (
	defaultStoryLimit = 30
	// maxStoryLimit bounds both the fan-out per request and the cache keys.
	maxStoryLimit = 100
)

type StoryFetcher interface {
	TopStories(ctx context.Context, limit int) ([]tools.Story, error)
}

type Handler struct {
	Search  research.Searcher
	Chat    *chat.Service
	Stories StoryFetcher
	// Shares is nil when no database is configured.
	Shares ShareStore
	Cache  *cache.Cache
	Logger *slog.Logger
}

func NewHandler(search research.Searcher, c *chat.Service, stories StoryFetcher, shares ShareStore, storyTTL time.Duration) *Handler {
	if storyTTL <= 0 {
		storyTTL = 5 * time.Minute
	}
	return &Handler{
		Search:  search,
		Chat:    c,
		Stories: stories,
		Shares:  shares,
		Cache:   cache.New(storyTTL, 2*storyTTL),
		Logger:  slog.Default(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.Any("/mcp", gin.WrapH(h.MCPHandler()))
	api := r.Group("/api")
	{
		api.POST("/search", h.search)
		api.POST("/chat", h.chat)
		api.GET("/hackernews", h.hackerNews)

		api.POST("/share", h.createShare)
		api.GET("/share/:id", h.getShare)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) search(c *gin.Context) {
	var req research.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SearchDepth == "" {
		req.SearchDepth = "advanced"
	}

	resp, err := h.Search.Search(c.Request.Context(), req)
	if err != nil {
		if tools.IsNoResults(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": research.ErrNoResults.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ndjsonWriter sets the streaming headers on the first record so an error
// raised before any output can still be answered as plain JSON.
type ndjsonWriter struct {
	gin.ResponseWriter
	started bool
}

func (w *ndjsonWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.started = true
		setStreamHeaders(w.Header())
	}
	return w.ResponseWriter.Write(p)
}

func setStreamHeaders(header http.Header) {
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
}

func (h *Handler) chat(c *gin.Context) {
	var req struct {
		Messages []research.Message `json:"messages"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages cannot be empty"})
		return
	}

	w := &ndjsonWriter{ResponseWriter: c.Writer}
	n, err := h.Chat.Stream(c.Request.Context(), w, req.Messages)
	if err != nil {
		_ = c.Error(err)
		if n == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		// after the first record the only signal left is closing the stream
		return
	}
	if n == 0 {
		setStreamHeaders(c.Writer.Header())
		c.Status(http.StatusOK)
	}
}

func (h *Handler) hackerNews(c *gin.Context) {
	limit := defaultStoryLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxStoryLimit)
	}

	key := fmt.Sprintf("hn:%d", limit)
	if cached, ok := h.Cache.Get(key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	stories, err := h.Stories.TopStories(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if stories == nil {
		stories = []tools.Story{}
	}
	h.Cache.SetDefault(key, stories)
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) createShare(c *gin.Context) {
	if h.Shares == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sharing requires a database"})
		return
	}

	var req SharedChat
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	id, err := h.Shares.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shareId": id.String()})
}

func (h *Handler) getShare(c *gin.Context) {
	if h.Shares == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sharing requires a database"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	shared, err := h.Shares.Get(c.Request.Context(), id)
	if errors.Is(err, ErrShareNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, shared)
}
