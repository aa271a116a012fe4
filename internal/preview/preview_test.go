package preview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/odishajobs/internal/config"
	"github.com/amishk599/odishajobs/internal/model"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleCandidates() []model.Candidate {
	return []model.Candidate{
		{
			Title:           "Junior Engineer (Civil) Recruitment",
			Organization:    "Odisha Public Service Commission",
			SourceName:      "opsc",
			NotificationURL: "https://www.opsc.gov.in/notice/1",
			PDFURL:          "https://www.opsc.gov.in/ad/1.pdf",
			Category:        model.CategoryEngineering,
		},
		{
			Title:           "Lecturer in Physics",
			Organization:    "Odisha Public Service Commission",
			SourceName:      "opsc",
			NotificationURL: "https://www.opsc.gov.in/notice/2",
			Category:        model.CategoryTeaching,
		},
	}
}

func TestPicker_NavigateAndSelect(t *testing.T) {
	var m tea.Model = pickerModel{
		sources: []config.SourceConfig{{Name: "opsc", Kind: "rendered", Enabled: true}, {Name: "osssc", Kind: "static"}},
		chosen:  pickerPending,
	}

	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("down")) // clamps at the last entry
	m, cmd := m.Update(key("enter"))

	assert.Equal(t, 1, m.(pickerModel).chosen)
	assert.NotNil(t, cmd, "enter should quit the program")
	assert.Contains(t, m.View(), "osssc (static)")
}

func TestPicker_Quit(t *testing.T) {
	var m tea.Model = pickerModel{sources: []config.SourceConfig{{Name: "opsc"}}, chosen: pickerPending}
	m, _ = m.Update(key("q"))
	assert.Equal(t, PickerQuit, m.(pickerModel).chosen)
}

func TestLoader_FetchDoneStoresResult(t *testing.T) {
	want := sampleCandidates()
	m := newLoaderModel("opsc", time.Second, func(context.Context) ([]model.Candidate, error) {
		return want, nil
	})

	msg := m.doFetch()()
	updated, cmd := m.Update(msg)

	final := updated.(loaderModel)
	assert.True(t, final.done)
	assert.NoError(t, final.err)
	assert.Equal(t, want, final.result)
	assert.NotNil(t, cmd)
	assert.Empty(t, final.View())
}

func TestLoader_CtrlCCancels(t *testing.T) {
	m := newLoaderModel("opsc", time.Second, func(context.Context) ([]model.Candidate, error) { return nil, nil })
	assert.Contains(t, m.View(), "Fetching candidates from opsc")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.ErrorIs(t, updated.(loaderModel).err, ErrCancelled)
}

func TestLoader_PropagatesFetchError(t *testing.T) {
	m := newLoaderModel("opsc", time.Second, func(context.Context) ([]model.Candidate, error) {
		return []model.Candidate{}, model.ErrAdapter
	})
	updated, _ := m.Update(m.doFetch()())
	assert.True(t, errors.Is(updated.(loaderModel).err, model.ErrAdapter))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable("opsc", sampleCandidates())

	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Junior Engineer (Civil) Recruitment")
	assert.Contains(t, out, "Teaching")
	assert.Contains(t, out, "2 candidate(s) from opsc")
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Contains(t, RenderTable("osssc", nil), "0 candidate(s) from osssc")
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "short", ellipsize("short", 10))
	got := ellipsize(strings.Repeat("a", 20), 10)
	assert.Equal(t, 10, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

type stubText struct{ text string }

func (s stubText) FetchText(_ context.Context, url string) model.NotificationText {
	return model.NotificationText{Text: s.text, URL: url}
}

type stubNormalizer struct{}

func (stubNormalizer) Normalize(context.Context, string) (model.AISummary, error) {
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	return model.AISummary{ShortSummary: "OPSC JE recruitment", ImportantDates: model.ImportantDates{ApplicationEnd: &end}}, nil
}

func TestBrowser_DetailFlow(t *testing.T) {
	var m tea.Model = newBrowserModel("opsc", sampleCandidates(), stubText{text: "Applications are invited."}, stubNormalizer{})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Contains(t, m.View(), "opsc: 2 candidates")

	m, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd, "opening detail should fetch notification text")
	assert.Equal(t, viewDetail, m.(browserModel).view)

	m, _ = m.Update(cmd())
	assert.Contains(t, m.(browserModel).renderDetail(), "press r to read notification text")

	m, _ = m.Update(key("r"))
	assert.Contains(t, m.(browserModel).renderDetail(), "Applications are invited.")

	m, cmd = m.Update(key("s"))
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	detail := m.(browserModel).renderDetail()
	assert.Contains(t, detail, "OPSC JE recruitment")
	assert.Contains(t, detail, "2024-01-31")

	m, _ = m.Update(key("esc"))
	assert.Equal(t, viewList, m.(browserModel).view)
}

func TestBrowser_QuitAndBack(t *testing.T) {
	var m tea.Model = newBrowserModel("opsc", sampleCandidates(), nil, nil)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	back, _ := m.Update(key("esc"))
	assert.False(t, back.(browserModel).wantQuit)

	quit, _ := m.Update(key("q"))
	assert.True(t, quit.(browserModel).wantQuit)
}

func TestWordWrap(t *testing.T) {
	assert.Equal(t, "aaa bbb\nccc", wordWrap("aaa bbb ccc", 7))
	assert.Equal(t, "", wordWrap("   ", 10))
}
