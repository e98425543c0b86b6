package clients

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when CHAT_MODEL is not set.
const DefaultGeminiModel = "gemini-2.5-flash"

func GeminiModel(ctx context.Context, apiKey, modelName string) (model.LLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not set")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	llm, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini model: %w", err)
	}
	return llm, nil
}
