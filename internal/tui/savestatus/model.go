// Package savestatus is a small bubbletea program that submits an Editor's
// pending edits and shows the update notice while the request runs.
package savestatus

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/optsync/internal/notice"
	"github.com/marcus/optsync/internal/output"
	"github.com/marcus/optsync/internal/settings"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

type noticeMsg notice.Notice

type submitDoneMsg struct{ err error }

// Model runs one submit.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	editor  *settings.Editor
	board   *notice.Board
	notices chan notice.Notice

	spinner spinner.Model
	current notice.Notice
	done    bool
	err     error
}

// New creates a Model that will submit ed's pending edits.
func New(ctx context.Context, ed *settings.Editor) *Model {
	ctx, cancel := context.WithCancel(ctx)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := &Model{
		ctx:     ctx,
		cancel:  cancel,
		editor:  ed,
		board:   notice.NewBoard(),
		notices: make(chan notice.Notice, 8),
		spinner: sp,
	}
	m.board.Subscribe(m.notices)
	return m
}

// Init starts the spinner and the submit.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.submit, m.waitForNotice)
}

func (m *Model) submit() tea.Msg {
	return submitDoneMsg{err: m.editor.Submit(m.ctx, m.board)}
}

func (m *Model) waitForNotice() tea.Msg {
	select {
	case n := <-m.notices:
		return noticeMsg(n)
	case <-m.ctx.Done():
		return nil
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
		}
		return m, nil

	case noticeMsg:
		m.current = notice.Notice(msg)
		return m, m.waitForNotice

	case submitDoneMsg:
		m.done = true
		m.err = msg.err
		// The final notice may still be queued; the board has it.
		if n, ok := m.board.Get(settings.UpdateNoticeID); ok {
			m.current = n
		}
		m.cancel()
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the spinner and the current notice.
func (m *Model) View() string {
	if m.done {
		if m.current.ID == "" {
			return "nothing to save\n"
		}
		return output.NoticeLine(m.current) + "\n"
	}
	text := m.current.Text
	if text == "" {
		text = "Updating settings…"
	}
	return m.spinner.View() + " " + text + "\n"
}

// Err returns the submit error once the program has finished.
func (m *Model) Err() error {
	return m.err
}

// Run submits ed's pending edits while rendering progress to out.
func Run(ctx context.Context, ed *settings.Editor, out io.Writer) error {
	m := New(ctx, ed)
	defer m.cancel()
	if _, err := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx)).Run(); err != nil {
		return err
	}
	if !m.done {
		return context.Canceled
	}
	return m.err
}
