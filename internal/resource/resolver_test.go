package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/odishajobs/internal/ai"
	"github.com/amishk599/odishajobs/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProvider struct {
	response string
	err      error
	lastReq  ai.Request
}

func (s *stubProvider) Complete(_ context.Context, req ai.Request) (string, error) {
	s.lastReq = req
	return s.response, s.err
}

type stubVideos struct {
	videos    []model.Video
	err       error
	lastQuery string
}

func (s *stubVideos) SearchVideos(_ context.Context, query string) ([]model.Video, error) {
	s.lastQuery = query
	return s.videos, s.err
}

const title = "Junior Engineer (Civil) Recruitment"

func assertLinks(t *testing.T, set model.ResourceSet) {
	t.Helper()
	require.Len(t, set.SearchLinks, len(set.SearchQueries))
	for i, link := range set.SearchLinks {
		assert.Equal(t, set.SearchQueries[i], link.Query)
		assert.True(t, strings.HasPrefix(link.URL, SearchURLPrefix), link.URL)
		assert.NotContains(t, link.URL, " ")
		u, err := url.Parse(link.URL)
		require.NoError(t, err)
		assert.Equal(t, link.Query, u.Query().Get("search_query"))
	}
}

func TestResolve_FallbackOnProviderError(t *testing.T) {
	r := NewResolver(&stubProvider{err: errors.New("connection refused")}, discardLogger())

	set, err := r.Resolve(context.Background(), title, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		title + " preparation",
		title + " syllabus",
		title + " previous year papers",
		"Odisha government job preparation",
		"OPSC exam tips",
	}, set.SearchQueries)
	assert.Equal(t, DefaultExamType, set.ExamType)
	assert.NotNil(t, set.MainSubjects)
	assert.Empty(t, set.MainSubjects)
	assertLinks(t, set)
	assert.Nil(t, set.Videos)
}

func TestResolve_FallbackOnNoJSON(t *testing.T) {
	r := NewResolver(&stubProvider{response: "Try searching for OPSC videos."}, discardLogger())

	set, err := r.Resolve(context.Background(), title, nil)
	require.NoError(t, err)
	assert.Equal(t, Fallback(title), set)
}

func TestResolve_FallbackOnWrongShape(t *testing.T) {
	r := NewResolver(&stubProvider{response: `{"searchQueries": "one query only"}`}, discardLogger())

	set, err := r.Resolve(context.Background(), title, nil)
	require.NoError(t, err)
	assert.Equal(t, Fallback(title), set)
}

func TestResolve_AISuggestions(t *testing.T) {
	provider := &stubProvider{response: `Here:
{"searchQueries": ["OPSC AE civil syllabus", "OPSC JE previous papers", "odisha je civil mock test",
  "JE civil engineering mechanics", "OPSC JE strategy", "  "],
 "examType": "OPSC", "mainSubjects": ["Surveying", "Building Materials", "surveying"]}`}
	r := NewResolver(provider, discardLogger(), WithStructuredOutput(true))

	summary := &model.AISummary{ShortSummary: "OPSC recruits 120 Junior Engineers."}
	set, err := r.Resolve(context.Background(), title, summary)
	require.NoError(t, err)

	assert.Len(t, set.SearchQueries, 5)
	assert.Equal(t, "OPSC AE civil syllabus", set.SearchQueries[0])
	assert.Equal(t, "OPSC", set.ExamType)
	assert.Equal(t, []string{"Surveying", "Building Materials"}, set.MainSubjects)
	assertLinks(t, set)

	assert.Equal(t, 0.7, provider.lastReq.Temperature)
	assert.Equal(t, 3, provider.lastReq.TopK)
	assert.Contains(t, provider.lastReq.Prompt, title)
	assert.Contains(t, provider.lastReq.Prompt, summary.ShortSummary)
	assert.NotNil(t, provider.lastReq.Schema)
}

func TestResolve_PadsAndCapsQueries(t *testing.T) {
	few := &stubProvider{response: `{"searchQueries": ["OPSC exam tips", "JE civil"], "examType": ""}`}
	set, err := NewResolver(few, discardLogger()).Resolve(context.Background(), title, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"OPSC exam tips", "JE civil", title + " preparation", title + " syllabus", title + " previous year papers"}, set.SearchQueries)
	assert.Equal(t, DefaultExamType, set.ExamType)
	assert.Contains(t, few.lastReq.Prompt, "Government job opportunity in Odisha")

	var qs []string
	for i := 0; i < 9; i++ {
		qs = append(qs, fmt.Sprintf("%q", fmt.Sprintf("query %d", i)))
	}
	many := &stubProvider{response: `{"searchQueries": [` + strings.Join(qs, ",") + `]}`}
	set, err = NewResolver(many, discardLogger()).Resolve(context.Background(), title, nil)
	require.NoError(t, err)
	assert.Len(t, set.SearchQueries, 7)
	assert.Equal(t, "query 6", set.SearchQueries[6])
}

func TestResolve_StrictModeAttachesVideos(t *testing.T) {
	videos := &stubVideos{videos: []model.Video{{VideoID: "abc", ViewCount: 10}}}
	r := NewResolver(&stubProvider{err: ai.ErrDisabled}, discardLogger(), WithVideoSearch(videos))

	set, err := r.Resolve(context.Background(), title, nil)
	require.NoError(t, err)
	assert.Equal(t, title+" Odisha exam preparation", videos.lastQuery)
	require.Len(t, set.Videos, 1)
	assert.Equal(t, "abc", set.Videos[0].VideoID)
	assert.Len(t, set.SearchQueries, 5)
}

func TestResolve_StrictModeQuotaSurfaces(t *testing.T) {
	videos := &stubVideos{err: fmt.Errorf("youtube search: %w", model.ErrQuotaExceeded)}
	r := NewResolver(&stubProvider{err: ai.ErrDisabled}, discardLogger(), WithVideoSearch(videos))

	set, err := r.Resolve(context.Background(), title, nil)
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
	assert.Equal(t, Fallback(title), set, "suggestions are still returned with the quota error")
}

func TestResolve_StrictModeOtherErrorAbsorbed(t *testing.T) {
	videos := &stubVideos{err: &model.HTTPError{StatusCode: 500}}
	r := NewResolver(&stubProvider{err: ai.ErrDisabled}, discardLogger(), WithVideoSearch(videos))

	set, err := r.Resolve(context.Background(), title, nil)
	require.NoError(t, err)
	assert.Nil(t, set.Videos)
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t,
		"https://www.youtube.com/results?search_query=OPSC%20JE%20%28Civil%29%20%26%20AE",
		SearchURL("OPSC JE (Civil) & AE"))
}
