// Package chat produces the streamed completion records served by /api/chat.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/stream"
)

// EmitFunc receives each delta as the model produces it. Returning an error
// stops the generation.
type EmitFunc func(stream.Delta) error

// Provider streams a completion for a conversation.
type Provider interface {
	Stream(ctx context.Context, messages []research.Message, emit EmitFunc) error
}

// LangchainProvider streams through any langchaingo model. It only ever
// produces content deltas.
type LangchainProvider struct {
	Model  llms.Model
	Logger *slog.Logger
}

func NewLangchainProvider(model llms.Model) *LangchainProvider {
	return &LangchainProvider{Model: model, Logger: slog.Default()}
}

func (p *LangchainProvider) Stream(ctx context.Context, messages []research.Message, emit EmitFunc) error {
	content := ToMessageContent(messages)

	_, err := p.Model.GenerateContent(ctx, content,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return emit(stream.ContentDelta{Text: string(chunk)})
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to generate completion: %w", err)
	}
	p.Logger.Debug("Completion finished", "messages", len(messages))
	return nil
}

// ToMessageContent maps user messages to human turns and everything else to AI turns.
func ToMessageContent(messages []research.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		role := llms.ChatMessageTypeAI
		if msg.Role == research.RoleUser {
			role = llms.ChatMessageTypeHuman
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}
	return content
}
