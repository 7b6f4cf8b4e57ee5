package gateway

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"Loremaster/server/internal/config"
	"Loremaster/server/internal/interfaces"
)

// openaiBackend speaks the OpenAI chat-completions protocol; with a custom
// base URL it covers any compatible provider (OpenAI, GLM, local proxies).
type openaiBackend struct {
	client      *openai.Client
	id          string
	model       string
	description string
	temperature float32
	maxTokens   int
}

func newOpenAIBackend(cfg config.BackendConfig) *openaiBackend {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = 0.7
	}

	return &openaiBackend{
		client:      openai.NewClientWithConfig(clientConfig),
		id:          cfg.ID,
		model:       cfg.Model,
		description: cfg.Description,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (b *openaiBackend) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		return "", &GenerationError{Backend: b.id, Detail: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Backend: b.id, Detail: "no choices returned"}
	}
	return resp.Choices[0].Message.Content, nil
}

func (b *openaiBackend) info() interfaces.BackendInfo {
	return interfaces.BackendInfo{ID: b.id, Model: b.model, Description: b.description}
}
