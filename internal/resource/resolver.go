package resource

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"text/template"

	"github.com/amishk599/odishajobs/internal/ai"
	"github.com/amishk599/odishajobs/internal/model"
)

const (
	// SearchURLPrefix is the video-search page a query is appended to.
	SearchURLPrefix = "https://www.youtube.com/results?search_query="

	// DefaultExamType is used when the model names no exam type.
	DefaultExamType = "Government Job"

	defaultSummary = "Government job opportunity in Odisha"

	minQueries = 5
	maxQueries = 7
)

//go:embed prompts/resources.md
var resourcesPromptRaw string

var resourcesTemplate = template.Must(template.New("resources").Parse(resourcesPromptRaw))

// Schema is the suggestion shape requested from structured-output providers.
var Schema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"searchQueries": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"minItems": minQueries,
			"maxItems": maxQueries,
		},
		"examType":     map[string]any{"type": "string"},
		"mainSubjects": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"searchQueries", "examType", "mainSubjects"},
}

// VideoSearcher queries a video index. Implementations return an error
// wrapping model.ErrQuotaExceeded when the index rejects the request for quota.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string) ([]model.Video, error)
}

// Resolver derives exam-preparation search suggestions for a posting.
type Resolver struct {
	provider   ai.LLMProvider
	videos     VideoSearcher // nil unless strict mode
	structured bool
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithVideoSearch enables strict mode: every resolution also queries the
// video index and attaches the hits with their statistics.
func WithVideoSearch(vs VideoSearcher) Option {
	return func(r *Resolver) { r.videos = vs }
}

// WithStructuredOutput sends Schema with every suggestion request.
func WithStructuredOutput(enabled bool) Option {
	return func(r *Resolver) { r.structured = enabled }
}

// NewResolver creates a Resolver backed by provider.
func NewResolver(provider ai.LLMProvider, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{provider: provider, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns search suggestions for a posting. Model failures fall
// back to Fallback(title), so the set is always usable. The only error
// returned is a video-index quota failure in strict mode, which comes with
// the suggestions resolved so far.
func (r *Resolver) Resolve(ctx context.Context, title string, summary *model.AISummary) (model.ResourceSet, error) {
	set, err := r.suggest(ctx, title, summary)
	if err != nil {
		r.logger.Warn("resource suggestion failed, using fallback queries", "title", title, "error", err)
		set = Fallback(title)
	}

	if r.videos == nil {
		return set, nil
	}

	videos, err := r.videos.SearchVideos(ctx, title+" Odisha exam preparation")
	if err != nil {
		if errors.Is(err, model.ErrQuotaExceeded) {
			return set, err
		}
		r.logger.Warn("video search failed", "title", title, "error", err)
		return set, nil
	}
	set.Videos = videos
	return set, nil
}

type suggestion struct {
	SearchQueries []string `json:"searchQueries"`
	ExamType      string   `json:"examType"`
	MainSubjects  []string `json:"mainSubjects"`
}

func (r *Resolver) suggest(ctx context.Context, title string, summary *model.AISummary) (model.ResourceSet, error) {
	jobSummary := defaultSummary
	if summary != nil && summary.ShortSummary != "" && summary.ShortSummary != ai.DefaultShortSummary {
		jobSummary = summary.ShortSummary
	}

	var promptBuf bytes.Buffer
	if err := resourcesTemplate.Execute(&promptBuf, struct{ Title, Summary string }{title, jobSummary}); err != nil {
		return model.ResourceSet{}, fmt.Errorf("render prompt: %w", err)
	}

	req := ai.ResourceSampling.With("", promptBuf.String())
	if r.structured {
		req.Schema = Schema
		req.SchemaName = "resource_suggestions"
	}

	raw, err := r.provider.Complete(ctx, req)
	if err != nil {
		return model.ResourceSet{}, fmt.Errorf("llm complete: %w", err)
	}

	span, ok := ai.ExtractJSONObject(raw)
	if !ok {
		return model.ResourceSet{}, model.ErrNoJSON
	}
	var s suggestion
	if err := json.Unmarshal([]byte(span), &s); err != nil {
		return model.ResourceSet{}, fmt.Errorf("unmarshal suggestions: %w", err)
	}

	queries := padQueries(cleanList(s.SearchQueries), title)
	examType := strings.TrimSpace(s.ExamType)
	if examType == "" {
		examType = DefaultExamType
	}

	return model.ResourceSet{
		SearchQueries: queries,
		ExamType:      examType,
		MainSubjects:  cleanList(s.MainSubjects),
		SearchLinks:   SearchLinks(queries),
	}, nil
}

// padQueries bounds model queries to between minQueries and maxQueries,
// topping up from the fallback template.
func padQueries(queries []string, title string) []string {
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	seen := make(map[string]bool, len(queries))
	for _, q := range queries {
		seen[strings.ToLower(q)] = true
	}
	for _, q := range fallbackQueries(title) {
		if len(queries) >= minQueries {
			break
		}
		if !seen[strings.ToLower(q)] {
			queries = append(queries, q)
			seen[strings.ToLower(q)] = true
		}
	}
	return queries
}

func fallbackQueries(title string) []string {
	return []string{
		title + " preparation",
		title + " syllabus",
		title + " previous year papers",
		"Odisha government job preparation",
		"OPSC exam tips",
	}
}

// Fallback is the deterministic suggestion set: five template queries, the
// default exam type and no subjects.
func Fallback(title string) model.ResourceSet {
	queries := fallbackQueries(title)
	return model.ResourceSet{
		SearchQueries: queries,
		ExamType:      DefaultExamType,
		MainSubjects:  []string{},
		SearchLinks:   SearchLinks(queries),
	}
}

// SearchLinks builds one search link per query.
func SearchLinks(queries []string) []model.SearchLink {
	links := make([]model.SearchLink, 0, len(queries))
	for _, q := range queries {
		links = append(links, model.SearchLink{Query: q, URL: SearchURL(q)})
	}
	return links
}

// SearchURL percent-encodes query into the video-search URL.
func SearchURL(query string) string {
	return SearchURLPrefix + strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.Join(strings.Fields(s), " ")
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
