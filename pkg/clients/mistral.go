package clients

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/mistral"
)

// DefaultMistralModel matches the model the chat route has always used.
const DefaultMistralModel = "mistral-large-latest"

func Mistral(apiKey, modelName string) (*mistral.Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("MISTRAL_API_KEY is not set")
	}
	if modelName == "" {
		modelName = DefaultMistralModel
	}

	llm, err := mistral.New(mistral.WithAPIKey(apiKey), mistral.WithModel(modelName))
	if err != nil {
		return nil, fmt.Errorf("failed to create mistral model: %w", err)
	}
	return llm, nil
}
