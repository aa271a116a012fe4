package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/normalize.md
var normalizePromptRaw string

// NormalizeTemplate is the parsed prompt template for notification extraction.
// Parsed once at package init; reused on every Normalize call.
var NormalizeTemplate = template.Must(template.New("normalize").Parse(normalizePromptRaw))

// NormalizeSystem is the system instruction sent with extraction requests.
const NormalizeSystem = "You are a precise structured data extractor for Odisha government job notifications."
