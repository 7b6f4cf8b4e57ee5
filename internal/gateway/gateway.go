package gateway

import (
	"context"
	"fmt"
	"time"

	"Loremaster/server/internal/config"
	"Loremaster/server/internal/interfaces"
)

const defaultTimeout = 120 * time.Second

// GenerationError reports a failed model call. The core surfaces it
// immediately; no retries happen below this boundary.
type GenerationError struct {
	Backend string
	Status  int
	Detail  string
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s failed with status %d: %s", e.Backend, e.Status, e.Detail)
	}
	return fmt.Sprintf("backend %s failed: %s", e.Backend, e.Detail)
}

type backend interface {
	generate(ctx context.Context, prompt string) (string, error)
	info() interfaces.BackendInfo
}

// Gateway routes prompts to one of the configured text-generation
// backends. It implements interfaces.ModelGateway.
type Gateway struct {
	backends  map[string]backend
	order     []string
	defaultID string
}

func New(cfg config.AIConfig) (*Gateway, error) {
	g := &Gateway{
		backends:  make(map[string]backend),
		defaultID: cfg.DefaultBackend,
	}

	for _, bc := range cfg.Backends {
		var b backend
		switch bc.Type {
		case "openai":
			b = newOpenAIBackend(bc)
		case "ollama":
			b = newOllamaBackend(bc)
		default:
			return nil, fmt.Errorf("unknown backend type %q for backend %q", bc.Type, bc.ID)
		}
		g.backends[bc.ID] = b
		g.order = append(g.order, bc.ID)
	}

	if len(g.backends) == 0 {
		return nil, fmt.Errorf("no generation backends configured")
	}
	if g.defaultID == "" {
		g.defaultID = g.order[0]
	}
	if _, ok := g.backends[g.defaultID]; !ok {
		return nil, fmt.Errorf("default backend %q is not configured", g.defaultID)
	}

	return g, nil
}

func (g *Gateway) Generate(ctx context.Context, prompt, backendID string) (string, error) {
	if backendID == "" {
		backendID = g.defaultID
	}
	b, ok := g.backends[backendID]
	if !ok {
		return "", &GenerationError{Backend: backendID, Detail: "backend not configured"}
	}
	return b.generate(ctx, prompt)
}

func (g *Gateway) Backends() []interfaces.BackendInfo {
	out := make([]interfaces.BackendInfo, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.backends[id].info())
	}
	return out
}
