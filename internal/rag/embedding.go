package rag

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"Loremaster/server/internal/config"
)

const (
	cacheTTL       = 24 * time.Hour
	defaultTimeout = 30 * time.Second
)

// EmbeddingService generates embedding vectors through an OpenAI-compatible
// /embeddings endpoint, with an in-memory TTL cache so re-indexing the same
// entity text does not re-hit the API.
type EmbeddingService struct {
	client *openai.Client
	model  string
	cache  *embeddingCache
}

type embeddingCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedEmbedding
}

type cachedEmbedding struct {
	vector    []float32
	createdAt time.Time
}

func NewEmbeddingService(cfg config.EmbeddingConfig) *EmbeddingService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &EmbeddingService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		cache:  &embeddingCache{entries: make(map[string]*cachedEmbedding)},
	}
}

// Embed returns the unit-normalized embedding for text
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.cache.get(text); ok {
		return vec, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned for input")
	}

	vector := normalizeVector(resp.Data[0].Embedding)
	s.cache.put(text, vector)
	return vector, nil
}

func (c *embeddingCache) get(text string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.entries[text]
	if !ok || time.Since(cached.createdAt) > cacheTTL {
		return nil, false
	}
	return cached.vector, true
}

func (c *embeddingCache) put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[text] = &cachedEmbedding{vector: vector, createdAt: time.Now()}
}

// normalizeVector scales a vector to unit length
func normalizeVector(vector []float32) []float32 {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vector
	}

	normalized := make([]float32, len(vector))
	for i, v := range vector {
		normalized[i] = float32(float64(v) / norm)
	}
	return normalized
}
