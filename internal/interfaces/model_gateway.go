package interfaces

import "context"

// BackendInfo describes one configured text-generation backend
type BackendInfo struct {
	ID          string `json:"id"`
	Model       string `json:"model"`
	Description string `json:"description"`
}

// ModelGateway invokes one of several interchangeable text-generation
// backends with a fully-formed prompt. Failures are surfaced to the caller
// as-is; the gateway performs no internal retries.
type ModelGateway interface {
	// Generate sends the prompt to the backend identified by backendID
	// ("" selects the configured default) and returns the raw output text
	Generate(ctx context.Context, prompt, backendID string) (string, error)

	// Backends lists the configured backends
	Backends() []BackendInfo
}
