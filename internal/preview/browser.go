package preview

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/odishajobs/internal/model"
)

// TextFetcher retrieves notification text for the detail view.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) model.NotificationText
}

// Normalizer previews AI extraction for the detail view.
type Normalizer interface {
	Normalize(ctx context.Context, rawText string) (model.AISummary, error)
}

// Lines per candidate in the list view (title + subtitle + blank separator).
const itemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Width(18)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

type textFetchedMsg struct {
	url  string
	text model.NotificationText
}

type summaryMsg struct {
	url     string
	summary model.AISummary
	err     error
}

type browserModel struct {
	sourceName string
	candidates []model.Candidate
	cursor     int
	list       viewport.Model
	width      int
	height     int
	ready      bool

	view       viewState
	detail     viewport.Model
	text       TextFetcher
	normalizer Normalizer
	texts      map[string]string // notification url → fetched text
	summaries  map[string]*model.AISummary
	loading    bool
	showText   bool
	summarize  bool
	errMsg     string

	wantQuit bool
}

func newBrowserModel(sourceName string, candidates []model.Candidate, text TextFetcher, normalizer Normalizer) browserModel {
	return browserModel{
		sourceName: sourceName,
		candidates: candidates,
		text:       text,
		normalizer: normalizer,
		texts:      make(map[string]string),
		summaries:  make(map[string]*model.AISummary),
	}
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case textFetchedMsg:
		m.loading = false
		m.texts[msg.url] = msg.text.Text
		m.refreshDetail()
		return m, nil

	case summaryMsg:
		m.summarize = false
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("extraction failed: %v", msg.err)
		} else {
			s := msg.summary
			m.summaries[msg.url] = &s
			m.errMsg = ""
		}
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m browserModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.candidates)-1, 0))
		m.refreshList()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.candidates)-1, 0))
		m.refreshList()
		return m, nil
	case "enter":
		return m.openDetail()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m browserModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.current()
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(c.NotificationURL)
		return m, nil
	case "p":
		if c.PDFURL != "" {
			openURL(c.PDFURL)
		}
		return m, nil
	case "r":
		if _, ok := m.texts[c.NotificationURL]; ok {
			m.showText = !m.showText
			m.refreshDetail()
			m.detail.SetYOffset(0)
		}
		return m, nil
	case "s":
		text, ok := m.texts[c.NotificationURL]
		if m.normalizer != nil && ok && !m.summarize && m.summaries[c.NotificationURL] == nil {
			m.summarize = true
			m.errMsg = ""
			m.refreshDetail()
			return m, m.summarizeCmd(c.NotificationURL, text)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m browserModel) openDetail() (tea.Model, tea.Cmd) {
	if len(m.candidates) == 0 {
		return m, nil
	}
	c := m.current()
	m.view = viewDetail
	m.showText = false
	m.errMsg = ""
	m.detail = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.refreshDetail()

	if _, ok := m.texts[c.NotificationURL]; !ok && m.text != nil && c.NotificationURL != "" {
		m.loading = true
		return m, m.fetchTextCmd(c.NotificationURL)
	}
	return m, nil
}

func (m browserModel) fetchTextCmd(url string) tea.Cmd {
	fetcher := m.text
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return textFetchedMsg{url: url, text: fetcher.FetchText(ctx, url)}
	}
}

func (m browserModel) summarizeCmd(url, text string) tea.Cmd {
	normalizer := m.normalizer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s, err := normalizer.Normalize(ctx, text)
		return summaryMsg{url: url, summary: s, err: err}
	}
}

func (m browserModel) current() model.Candidate {
	if len(m.candidates) == 0 {
		return model.Candidate{}
	}
	return m.candidates[m.cursor]
}

func (m *browserModel) resize() {
	w := max(m.width-2, 20)
	h := max(m.height-4, 5)
	if !m.ready {
		m.list = viewport.New(w, h)
		m.ready = true
	} else {
		m.list.Width = w
		m.list.Height = h
	}
	if m.view == viewDetail {
		m.detail.Width = max(m.width-4, 20)
		m.detail.Height = h
		m.refreshDetail()
	}
	m.refreshList()
}

func (m *browserModel) refreshList() {
	m.list.SetContent(renderCandidates(m.candidates, m.cursor))

	top := m.cursor * itemHeight
	bottom := top + itemHeight - 1
	if top < m.list.YOffset {
		m.list.SetYOffset(top)
	} else if bottom >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(bottom - m.list.Height + 1)
	}
}

func (m *browserModel) refreshDetail() {
	m.detail.SetContent(m.renderDetail())
}

func (m browserModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		title := headerStyle.Render("Candidate Details")
		if m.loading {
			title += "  (loading text...)"
		}
		status := statusBarStyle.Width(m.width).Render(" o open notification  p open pdf  r text  s summary  esc back  ↑/↓ scroll  q quit")
		return title + "\n" + borderStyle.Width(m.width-2).Render(m.detail.View()) + "\n" + status
	}

	header := headerStyle.Render(fmt.Sprintf("%s: %d candidates", m.sourceName, len(m.candidates)))
	status := statusBarStyle.Width(m.width).Render(" ↑/↓ cursor  enter detail  esc back  q quit    dry run, nothing is stored")
	return header + "\n" + borderStyle.Width(m.width-2).Render(m.list.View()) + "\n" + status
}

func (m browserModel) renderDetail() string {
	c := m.current()
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", c.Title)
	addField("Organization", c.Organization)
	addField("Category", string(c.Category))
	addField("Source", c.SourceName)
	b.WriteByte('\n')
	addField("Notification", c.NotificationURL)
	addField("PDF", c.PDFURL)

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render("⚠ "+m.errMsg) + "\n")
	}

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		return dividerStyle.Render(label + strings.Repeat("─", max(wrapWidth-len(label), 3)))
	}

	if s := m.summaries[c.NotificationURL]; s != nil {
		b.WriteString("\n" + divider("── AI Summary ") + "\n\n")
		b.WriteString(wordWrap(s.ShortSummary, wrapWidth) + "\n\n")
		addField("Application Start", fmtDate(s.ImportantDates.ApplicationStart))
		addField("Application End", fmtDate(s.ImportantDates.ApplicationEnd))
		addField("Exam Date", fmtDate(s.ImportantDates.ExamDate))
		if s.Vacancies.Total > 0 {
			addField("Vacancies", fmt.Sprint(s.Vacancies.Total))
		}
		addField("Salary", s.Salary)
		if len(s.Qualification) > 0 {
			addField("Qualification", strings.Join(s.Qualification, "; "))
		}
	} else if m.summarize {
		b.WriteString("\n" + hintStyle.Render("  extracting summary...") + "\n")
	} else if _, ok := m.texts[c.NotificationURL]; ok && m.normalizer != nil {
		b.WriteString("\n" + hintStyle.Render("  press s to preview the AI summary") + "\n")
	}

	if text, ok := m.texts[c.NotificationURL]; ok {
		b.WriteByte('\n')
		switch {
		case text == "":
			b.WriteString(hintStyle.Render("  notification text unavailable") + "\n")
		case m.showText:
			b.WriteString(divider("── Notification Text ") + "\n\n")
			b.WriteString(wordWrap(text, wrapWidth) + "\n")
		default:
			b.WriteString(hintStyle.Render(fmt.Sprintf("  press r to read notification text (%d chars)", len(text))) + "\n")
		}
	}

	return b.String()
}

func renderCandidates(candidates []model.Candidate, cursor int) string {
	if len(candidates) == 0 {
		return "  (no candidates)"
	}

	var b strings.Builder
	for i, c := range candidates {
		titleSt, subtitleSt, prefix := titleStyle, subtitleStyle, "  "
		if i == cursor {
			titleSt, subtitleSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix + titleSt.Render(c.Title) + "\n")
		sub := string(c.Category)
		if c.PDFURL != "" {
			sub += " · pdf"
		}
		b.WriteString(prefix + subtitleSt.Render(sub) + "\n")

		if i < len(candidates)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunBrowser launches the full-screen candidate browser. text and normalizer
// may be nil. Returns wantQuit=true if the user pressed q/ctrl+c, false if
// they pressed esc to return to the picker.
func RunBrowser(sourceName string, candidates []model.Candidate, text TextFetcher, normalizer Normalizer) (bool, error) {
	p := tea.NewProgram(newBrowserModel(sourceName, candidates, text, normalizer), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	return result.(browserModel).wantQuit, nil
}
