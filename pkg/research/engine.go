package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/mikeboe/hyperlex/pkg/stream"
)

// Searcher enriches a query with web results.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// Completer opens a streamed chat completion.
type Completer interface {
	Stream(ctx context.Context, messages []Message) (io.ReadCloser, error)
}

// History persists the conversation as one blob.
type History interface {
	Save(ctx context.Context, sections []ChatSection) error
	Load(ctx context.Context) ([]ChatSection, error)
	Clear(ctx context.Context) error
}

// ResearchEngine runs submissions against the search and chat collaborators
// and records their progress in Sections. At most one submission is in
// flight: starting a new one cancels the previous without waiting for it.
type ResearchEngine struct {
	Search        Searcher
	Chat          Completer
	Sections      *SectionStore
	History       History
	Consumer      *stream.Consumer
	Logger        *slog.Logger
	OnStateUpdate func(index int, section ChatSection)

	mu         sync.Mutex
	cancel     context.CancelFunc
	generation uint64
	lastQuery  string
	messages   []Message
}

func NewEngine(search Searcher, chat Completer, history History) *ResearchEngine {
	logger := slog.Default()
	return &ResearchEngine{
		Search:   search,
		Chat:     chat,
		Sections: NewSectionStore(),
		History:  history,
		Consumer: stream.NewConsumer(logger),
		Logger:   logger,
	}
}

// Submit runs one query to completion and returns the index of its section.
// Cancellation, by Cancel or by a newer Submit, is not reported as an error;
// the section keeps whatever it received and its loading flags are cleared.
func (e *ResearchEngine) Submit(ctx context.Context, query string) (int, error) {
	if strings.TrimSpace(query) == "" {
		return -1, ErrEmptyQuery
	}

	runCtx, cancel, gen, prior := e.begin(ctx, query)
	defer cancel()
	defer e.finish(gen)

	slot := e.Sections.AppendSlot(ChatSection{
		Query:            query,
		SearchResults:    []SearchResult{},
		IsLoadingSources: true,
	})
	idx := slot.Index
	e.publish(idx)
	e.persist(ctx)

	e.Logger.Info("Starting research", "query", query, "index", idx)

	// 1. Source
	resp, err := e.sourcePhase(runCtx, prior, query)
	if err != nil {
		return idx, e.fail(ctx, runCtx, slot, err)
	}
	if !e.write(runCtx, slot, func(cs *ChatSection) {
		cs.SearchResults = resp.Results
		cs.IsLoadingSources = false
		cs.IsLoadingThinking = true
	}) {
		return idx, e.fail(ctx, runCtx, slot, ErrStaleSection)
	}

	// 2. Analyse
	result, err := e.analysisPhase(runCtx, slot, prior, query, resp)
	if err != nil {
		return idx, e.fail(ctx, runCtx, slot, err)
	}

	if !e.write(runCtx, slot, func(cs *ChatSection) {
		cs.SearchResults = resp.Results
		cs.IsLoadingSources = false
		cs.IsLoadingThinking = false
	}) {
		return idx, e.fail(ctx, runCtx, slot, ErrStaleSection)
	}

	e.mu.Lock()
	e.messages = append(e.messages, Message{
		Role:          RoleAssistant,
		Content:       result.Content,
		Reasoning:     result.Reasoning,
		SearchResults: resp.Results,
	})
	e.mu.Unlock()

	e.persist(ctx)
	e.Logger.Info("Research complete", "index", idx, "records", result.Records, "skipped", result.Skipped)
	return idx, nil
}

func (e *ResearchEngine) sourcePhase(ctx context.Context, prior, query string) (*SearchResponse, error) {
	resp, err := e.Search.Search(ctx, SearchRequest{
		Query:                    ContextualQuery(prior, query),
		IncludeImages:            true,
		IncludeImageDescriptions: true,
		SearchDepth:              "advanced",
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, ErrNoResults
	}

	e.Logger.Info("Search successful", "count", len(resp.Results))
	return resp, nil
}

func (e *ResearchEngine) analysisPhase(ctx context.Context, slot Slot, prior, query string, resp *SearchResponse) (stream.Result, error) {
	prompt, err := BuildPrompt(prior, query, resp)
	if err != nil {
		return stream.Result{}, err
	}

	body, err := e.Chat.Stream(ctx, AnalysisMessages(query, prompt))
	if err != nil {
		return stream.Result{}, err
	}
	defer body.Close()

	consumer := e.Consumer
	if consumer == nil {
		consumer = stream.NewConsumer(e.Logger)
	}

	return consumer.Consume(ctx, body, func(u stream.Update) error {
		ok := e.write(ctx, slot, func(cs *ChatSection) {
			switch u.Delta.(type) {
			case stream.ReasoningDelta:
				cs.Reasoning = u.Reasoning
				cs.IsLoadingThinking = false
			case stream.ContentDelta:
				cs.Response = u.Content
			}
		})
		if !ok {
			return ErrStaleSection
		}
		return nil
	})
}

// fail records err on the section. A cancelled run only settles its loading
// flags and returns nil. Nothing is written or persisted once the section has
// been cleared away, so a late failure cannot touch a newer conversation.
func (e *ResearchEngine) fail(ctx, runCtx context.Context, slot Slot, err error) error {
	if errors.Is(runCtx.Err(), context.Canceled) || errors.Is(err, context.Canceled) || errors.Is(err, ErrStaleSection) {
		e.Logger.Info("Request was aborted", "index", slot.Index)
		if e.settle(slot, nil) {
			e.persist(ctx)
		}
		return nil
	}

	msg := userMessage(err)
	e.Logger.Error("Research failed", "index", slot.Index, "error", err)
	if e.settle(slot, &msg) {
		e.persist(ctx)
	}
	return err
}

// settle clears the loading flags of the slot without touching its
// accumulators. It reports false when the slot went stale.
func (e *ResearchEngine) settle(slot Slot, msg *string) bool {
	cs, err := e.Sections.UpdateSlot(slot, nil, func(cs *ChatSection) {
		if msg != nil {
			cs.Error = msg
		}
		cs.IsLoadingSources = false
		cs.IsLoadingThinking = false
	})
	if err != nil {
		e.Logger.Debug("Section gone before it settled", "index", slot.Index, "error", err)
		return false
	}
	e.notify(slot.Index, cs)
	return true
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrReportFailed):
		return ErrReportFailed.Error()
	case errors.Is(err, ErrNoResults):
		return ErrNoResults.Error()
	case err == nil:
		return "An unexpected error occurred"
	default:
		return err.Error()
	}
}

// write applies fn to the slot while ctx is live. The check runs under the
// store lock, so a Cancel or ClearHistory that returned first always wins.
func (e *ResearchEngine) write(ctx context.Context, slot Slot, fn func(*ChatSection)) bool {
	cs, err := e.Sections.UpdateSlot(slot, func() bool { return ctx.Err() == nil }, fn)
	if err != nil {
		if !errors.Is(err, ErrStaleSection) {
			e.Logger.Warn("Failed to update section", "index", slot.Index, "error", err)
		}
		return false
	}
	e.notify(slot.Index, cs)
	return true
}

func (e *ResearchEngine) publish(idx int) {
	if cs, err := e.Sections.Section(idx); err == nil {
		e.notify(idx, cs)
	}
}

func (e *ResearchEngine) notify(idx int, cs ChatSection) {
	if e.OnStateUpdate != nil {
		e.OnStateUpdate(idx, cs)
	}
}

func (e *ResearchEngine) persist(ctx context.Context) {
	if e.History == nil {
		return
	}
	if err := e.History.Save(context.WithoutCancel(ctx), e.Sections.Sections()); err != nil {
		e.Logger.Error("Failed to save chat history", "error", err)
	}
}

func (e *ResearchEngine) begin(ctx context.Context, query string) (context.Context, context.CancelFunc, uint64, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.generation++

	prior := e.lastQuery
	e.lastQuery = query
	e.messages = append(e.messages, Message{Role: RoleUser, Content: query})
	return runCtx, cancel, e.generation, prior
}

func (e *ResearchEngine) finish(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation == gen {
		e.cancel = nil
	}
}

// Cancel aborts the in-flight submission, if any. It is safe to call at any
// time and any number of times.
func (e *ResearchEngine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// IsLoading reports whether a submission is in flight.
func (e *ResearchEngine) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancel != nil
}

// Messages returns the transient request/response log of this session.
func (e *ResearchEngine) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// LoadHistory replaces the conversation with the persisted one.
func (e *ResearchEngine) LoadHistory(ctx context.Context) error {
	if e.History == nil {
		return nil
	}
	sections, err := e.History.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}
	e.Sections.Reset(sections)
	return nil
}

// ClearHistory cancels any submission and drops the whole conversation.
func (e *ResearchEngine) ClearHistory(ctx context.Context) error {
	e.Cancel()
	e.Sections.Clear()

	e.mu.Lock()
	e.lastQuery = ""
	e.messages = nil
	e.mu.Unlock()

	if e.History == nil {
		return nil
	}
	if err := e.History.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}

// ToggleReasoning collapses or expands the reasoning trace of a section.
func (e *ResearchEngine) ToggleReasoning(ctx context.Context, idx int) error {
	if err := e.Sections.ToggleReasoning(idx); err != nil {
		return err
	}
	e.publish(idx)
	e.persist(ctx)
	return nil
}
