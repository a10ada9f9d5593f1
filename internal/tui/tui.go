// Package tui implements the Bubble Tea signal browser.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// Model is the top-level Bubble Tea model: file list on the left, the
// selected file's signals on the right.
type Model struct {
	files []signal.FileSignals

	// UI state
	width  int
	height int

	fileIndex int // selected file
	sigIndex  int // selected signal within the file

	triage *Triage

	showHelp bool
}

// New creates a browser over analyzed files.
func New(files []signal.FileSignals) Model {
	return Model{
		files:  files,
		triage: NewTriage(),
	}
}

// Result returns the triage decisions accumulated during the session.
func (m Model) Result() *Triage { return m.triage }

func (m Model) currentSignals() []signal.Signal {
	if len(m.files) == 0 {
		return nil
	}
	return m.files[m.fileIndex].Signals
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.sigIndex < len(m.currentSignals())-1 {
				m.sigIndex++
			}

		case key.Matches(msg, keys.Up):
			if m.sigIndex > 0 {
				m.sigIndex--
			}

		case key.Matches(msg, keys.NextFile):
			if m.fileIndex < len(m.files)-1 {
				m.fileIndex++
				m.sigIndex = 0
			}

		case key.Matches(msg, keys.PrevFile):
			if m.fileIndex > 0 {
				m.fileIndex--
				m.sigIndex = 0
			}

		case key.Matches(msg, keys.NextBlocker):
			m.jumpToBlocker(1)

		case key.Matches(msg, keys.PrevBlocker):
			m.jumpToBlocker(-1)

		case key.Matches(msg, keys.Acknowledge):
			if s, ok := m.selected(); ok {
				m.triage.Acknowledge(m.files[m.fileIndex].Path, s)
			}

		case key.Matches(msg, keys.Dismiss):
			if s, ok := m.selected(); ok {
				m.triage.Dismiss(m.files[m.fileIndex].Path, s)
			}

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
	}

	return m, nil
}

func (m Model) selected() (signal.Signal, bool) {
	signals := m.currentSignals()
	if m.sigIndex < 0 || m.sigIndex >= len(signals) {
		return signal.Signal{}, false
	}
	return signals[m.sigIndex], true
}

// jumpToBlocker moves the selection to the next or previous blocker within
// the current file.
func (m *Model) jumpToBlocker(dir int) {
	signals := m.currentSignals()
	for i := m.sigIndex + dir; i >= 0 && i < len(signals); i += dir {
		if signals[i].Severity == signal.SeverityBlocker {
			m.sigIndex = i
			return
		}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	fileListWidth := m.fileListWidth()
	signalWidth := m.width - fileListWidth - 1

	fileList := m.renderFileList(fileListWidth, m.height-2)
	signalView := m.renderSignalView(signalWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, fileList, " ", signalView)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) fileListWidth() int {
	maxLen := 20
	for _, f := range m.files {
		if len(f.Path) > maxLen {
			maxLen = len(f.Path)
		}
	}
	w := maxLen + 8 // padding + count
	if w > m.width/3 {
		w = m.width / 3
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderStatusBar() string {
	total := 0
	blockers := 0
	for _, f := range m.files {
		total += len(f.Signals)
		for _, s := range f.Signals {
			if s.Severity == signal.SeverityBlocker {
				blockers++
			}
		}
	}

	left := fmt.Sprintf(" File %d/%d", m.fileIndex+1, len(m.files))
	if n := len(m.currentSignals()); n > 0 {
		left += fmt.Sprintf("  Signal %d/%d", m.sigIndex+1, n)
	}

	right := fmt.Sprintf("%d signal(s), %d blocker(s)  ? help ", total, blockers)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(fileHeaderStyle.Render("sigscan — Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []struct{ key, desc string }{
		{"↑/k", "Previous signal"},
		{"↓/j", "Next signal"},
		{"n/Tab", "Next file"},
		{"N/S-Tab", "Previous file"},
		{"]", "Next blocker"},
		{"[", "Previous blocker"},
		{"a", "Acknowledge signal"},
		{"x", "Dismiss signal"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.key),
			item.desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// Run starts the browser and returns the session's triage decisions.
func Run(files []signal.FileSignals) (*Triage, error) {
	m := New(files)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	if fm, ok := final.(Model); ok {
		return fm.Result(), nil
	}
	return m.triage, nil
}
