package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/amishk599/odishajobs/internal/model"
)

// DefaultMinTextLength is the shortest notification text worth sending to the model.
const DefaultMinTextLength = 100

var summaryValidator = MustValidator("summary", SummarySchema)

// Normalizer turns raw notification text into a fully populated AISummary.
type Normalizer struct {
	provider   LLMProvider
	tmpl       *template.Template
	minLength  int
	structured bool
	logger     *slog.Logger
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithMinTextLength overrides DefaultMinTextLength.
func WithMinTextLength(n int) NormalizerOption {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.minLength = n
		}
	}
}

// WithStructuredOutput sends SummarySchema with every request so providers
// that support it constrain their output.
func WithStructuredOutput(enabled bool) NormalizerOption {
	return func(nz *Normalizer) { nz.structured = enabled }
}

// WithTemplate replaces NormalizeTemplate. The template receives {{.Text}}.
func WithTemplate(tmpl *template.Template) NormalizerOption {
	return func(nz *Normalizer) { nz.tmpl = tmpl }
}

// NewNormalizer creates a Normalizer backed by provider.
func NewNormalizer(provider LLMProvider, logger *slog.Logger, opts ...NormalizerOption) *Normalizer {
	nz := &Normalizer{
		provider:  provider,
		tmpl:      NormalizeTemplate,
		minLength: DefaultMinTextLength,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(nz)
	}
	return nz
}

// Normalize extracts an AISummary from rawText. Every error wraps
// model.ErrExtraction; input below the minimum length fails with
// model.ErrTextTooShort without calling the model.
func (n *Normalizer) Normalize(ctx context.Context, rawText string) (model.AISummary, error) {
	if len(rawText) < n.minLength {
		return model.AISummary{}, fmt.Errorf("%w (%d < %d chars)", model.ErrTextTooShort, len(rawText), n.minLength)
	}

	var promptBuf bytes.Buffer
	if err := n.tmpl.Execute(&promptBuf, struct{ Text string }{Text: rawText}); err != nil {
		return model.AISummary{}, fmt.Errorf("%w: render prompt: %w", model.ErrExtraction, err)
	}

	req := NormalizeSampling.With(NormalizeSystem, promptBuf.String())
	if n.structured {
		req.Schema = SummarySchema
		req.SchemaName = "ai_summary"
	}

	raw, err := n.provider.Complete(ctx, req)
	if err != nil {
		return model.AISummary{}, fmt.Errorf("%w: llm complete: %w", model.ErrExtraction, err)
	}

	obj, err := DecodeObject(raw)
	if err != nil {
		return model.AISummary{}, err
	}

	flat := flatten(obj)
	if err := summaryValidator.Validate(flat); err != nil {
		n.logger.Warn("model output does not match summary schema, defaulting",
			"violations", Violations(err),
		)
	}

	return DefaultSummary(flat), nil
}

// DecodeObject locates and decodes the first JSON object in a model response.
func DecodeObject(raw string) (map[string]any, error) {
	span, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, model.ErrNoJSON
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %w", model.ErrExtraction, err)
	}
	return obj, nil
}
