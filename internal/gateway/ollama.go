package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"Loremaster/server/internal/config"
	"Loremaster/server/internal/interfaces"
)

// ollamaBackend calls a local Ollama server's /api/generate endpoint
type ollamaBackend struct {
	baseURL     string
	id          string
	model       string
	description string
	client      *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func newOllamaBackend(cfg config.BackendConfig) *ollamaBackend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &ollamaBackend{
		baseURL:     baseURL,
		id:          cfg.ID,
		model:       cfg.Model,
		description: cfg.Description,
		client:      &http.Client{Timeout: timeout},
	}
}

func (b *ollamaBackend) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{Model: b.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", &GenerationError{Backend: b.id, Detail: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	url := b.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &GenerationError{Backend: b.id, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", &GenerationError{Backend: b.id, Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Backend: b.id, Detail: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &GenerationError{Backend: b.id, Status: resp.StatusCode, Detail: string(respBody)}
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &GenerationError{Backend: b.id, Detail: fmt.Sprintf("failed to unmarshal response: %v", err)}
	}
	if parsed.Error != "" {
		return "", &GenerationError{Backend: b.id, Detail: parsed.Error}
	}
	return parsed.Response, nil
}

func (b *ollamaBackend) info() interfaces.BackendInfo {
	return interfaces.BackendInfo{ID: b.id, Model: b.model, Description: b.description}
}
