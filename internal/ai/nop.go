package ai

import "context"

// NopProvider is used when ai.enabled is false. Every call fails with
// ErrDisabled, so extraction is skipped and resources take the fallback path.
type NopProvider struct{}

// NewNopProvider returns a NopProvider.
func NewNopProvider() *NopProvider {
	return &NopProvider{}
}

// Complete always returns ErrDisabled.
func (NopProvider) Complete(_ context.Context, _ Request) (string, error) {
	return "", ErrDisabled
}
