package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/stream"
)

const (
	appName   = "hyperlex"
	agentName = "hyperlex_analyst"
	userID    = "user"
)

// GeminiProvider runs an ADK agent with thinking enabled. Thought parts are
// forwarded as reasoning deltas and the remaining text as content deltas.
type GeminiProvider struct {
	Agent  agent.Agent
	Logger *slog.Logger
}

func NewGeminiProvider(llm model.LLM) (*GeminiProvider, error) {
	analyst, err := llmagent.New(llmagent.Config{
		Name:        agentName,
		Model:       llm,
		Description: "Writes research reports from web search results.",
		Instruction: "You are a research analyst. Answer using the sources provided in the conversation and cite them as [Source N].",
		GenerateContentConfig: &genai.GenerateContentConfig{
			ThinkingConfig: &genai.ThinkingConfig{IncludeThoughts: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return &GeminiProvider{Agent: analyst, Logger: slog.Default()}, nil
}

func (p *GeminiProvider) Stream(ctx context.Context, messages []research.Message, emit EmitFunc) error {
	if len(messages) == 0 {
		return fmt.Errorf("no messages to send")
	}

	sessionSvc := session.InMemoryService()
	sessionID := uuid.NewString()

	createRes, err := sessionSvc.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	// everything before the last message is replayed as session history
	history, last := messages[:len(messages)-1], messages[len(messages)-1]
	for _, msg := range history {
		role, author := "user", "user"
		if msg.Role != research.RoleUser {
			role, author = "model", agentName
		}

		evt := session.NewEvent(uuid.NewString())
		evt.Author = author
		evt.LLMResponse = model.LLMResponse{
			Content: &genai.Content{
				Role:  role,
				Parts: []*genai.Part{{Text: msg.Content}},
			},
		}
		if err := sessionSvc.AppendEvent(ctx, createRes.Session, evt); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
	}

	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          p.Agent,
		SessionService: sessionSvc,
	})
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	userContent := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: last.Content}},
	}

	p.Logger.Info("Starting agent run", "session_id", sessionID, "history", len(history))
	runCfg := agent.RunConfig{StreamingMode: agent.StreamingModeSSE}

	var partials PartialFilter
	for event, err := range r.Run(ctx, userID, sessionID, userContent, runCfg) {
		if err != nil {
			return fmt.Errorf("agent run failed: %w", err)
		}
		if !partials.Keep(event.LLMResponse.Partial) || event.LLMResponse.Content == nil {
			continue
		}
		for _, delta := range PartDeltas(event.LLMResponse.Content.Parts) {
			if err := emit(delta); err != nil {
				return err
			}
		}
	}
	p.Logger.Info("Agent run completed", "session_id", sessionID)
	return nil
}

// PartialFilter drops the aggregated event that follows a run of partial
// events, since its text was already emitted piece by piece.
type PartialFilter struct {
	streamed bool
}

func (f *PartialFilter) Keep(partial bool) bool {
	if partial {
		f.streamed = true
		return true
	}
	keep := !f.streamed
	f.streamed = false
	return keep
}

// PartDeltas converts response parts into deltas, skipping empty text.
func PartDeltas(parts []*genai.Part) []stream.Delta {
	var deltas []stream.Delta
	for _, part := range parts {
		if part == nil || part.Text == "" {
			continue
		}
		if part.Thought {
			deltas = append(deltas, stream.ReasoningDelta{Text: part.Text})
		} else {
			deltas = append(deltas, stream.ContentDelta{Text: part.Text})
		}
	}
	return deltas
}
