package preview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/odishajobs/internal/model"
)

// ErrCancelled is returned when the user aborts a fetch.
var ErrCancelled = errors.New("cancelled")

type fetchDoneMsg struct {
	candidates []model.Candidate
	err        error
}

type loaderModel struct {
	sourceName string
	fetchFn    func(ctx context.Context) ([]model.Candidate, error)
	timeout    time.Duration
	spinner    spinner.Model
	result     []model.Candidate
	err        error
	done       bool
}

func newLoaderModel(sourceName string, timeout time.Duration, fetchFn func(ctx context.Context) ([]model.Candidate, error)) loaderModel {
	return loaderModel{
		sourceName: sourceName,
		fetchFn:    fetchFn,
		timeout:    timeout,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("33"))),
		),
	}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doFetch(), m.spinner.Tick)
}

func (m loaderModel) doFetch() tea.Cmd {
	fetchFn := m.fetchFn
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		candidates, err := fetchFn(ctx)
		return fetchDoneMsg{candidates: candidates, err: err}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchDoneMsg:
		m.result = msg.candidates
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = ErrCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Fetching candidates from %s...\n", m.spinner.View(), m.sourceName)
}

// RunLoader shows a spinner while fetching candidates. It renders inline (no alt screen).
func RunLoader(sourceName string, timeout time.Duration, fetchFn func(ctx context.Context) ([]model.Candidate, error)) ([]model.Candidate, error) {
	p := tea.NewProgram(newLoaderModel(sourceName, timeout, fetchFn))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
