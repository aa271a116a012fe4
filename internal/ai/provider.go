package ai

import (
	"context"
	"errors"
)

// ErrDisabled is returned by NopProvider.
var ErrDisabled = errors.New("ai provider disabled")

// Request is a single generation call. Sampling fields left zero use the
// provider's defaults.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	TopK        int
	TopP        float64
	MaxTokens   int

	// Schema, when set, asks the provider to constrain output to this JSON
	// Schema. Providers without schema support fall back to a JSON response mode.
	Schema     map[string]any
	SchemaName string
}

// LLMProvider sends a request to a generative text model and returns the raw text response.
type LLMProvider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Sampling presets. Normalization is near-deterministic; resource
// suggestion allows more variety.
var (
	NormalizeSampling = Request{Temperature: 0.3, TopK: 1, TopP: 0.95, MaxTokens: 2048}
	ResourceSampling  = Request{Temperature: 0.7, TopK: 3, TopP: 0.9, MaxTokens: 1024}
)

// With returns a copy of the sampling preset carrying prompt.
func (r Request) With(system, prompt string) Request {
	r.System = system
	r.Prompt = prompt
	return r
}
