package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/sigscan/internal/signal"
)

func severityStyle(sev signal.Severity) lipgloss.Style {
	switch sev {
	case signal.SeverityBlocker:
		return signalBlockerStyle
	case signal.SeverityWarn:
		return signalWarnStyle
	}
	return signalInfoStyle
}

func severityIcon(sev signal.Severity) string {
	switch sev {
	case signal.SeverityBlocker:
		return "!!"
	case signal.SeverityWarn:
		return "! "
	}
	return "- "
}

func (m Model) renderFileList(width, height int) string {
	var b strings.Builder

	for i, f := range m.files {
		name := f.Path
		maxName := width - 8
		if maxName > 0 && len(name) > maxName {
			name = "…" + name[len(name)-maxName+1:]
		}

		line := fmt.Sprintf("%-*s %d", maxName, name, len(f.Signals))

		style := fileItemStyle
		if i == m.fileIndex {
			style = fileItemSelectedStyle
		} else if signal.MaxSeverity(f.Signals) == signal.SeverityBlocker {
			style = fileItemBlockerStyle
		}

		b.WriteString(style.Width(width - 4).Render(line))
		if i < len(m.files)-1 {
			b.WriteByte('\n')
		}
	}

	return fileListStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderSignalView(width, height int) string {
	innerHeight := height - 2
	if len(m.files) == 0 {
		return signalViewStyle.Width(width).Height(innerHeight).Render("No signals")
	}

	f := m.files[m.fileIndex]
	var b strings.Builder
	b.WriteString(fileHeaderStyle.Render(f.Path))
	b.WriteByte('\n')

	if len(f.Signals) == 0 {
		b.WriteString("Clean file.")
		return signalViewStyle.Width(width).Height(innerHeight).Render(b.String())
	}

	// Budget: the list gets what the detail panel leaves over.
	listBudget := innerHeight - detailHeight - 2
	if listBudget < 1 {
		listBudget = 1
	}
	start := 0
	if m.sigIndex >= listBudget {
		start = m.sigIndex - listBudget + 1
	}
	end := start + listBudget
	if end > len(f.Signals) {
		end = len(f.Signals)
	}

	for i := start; i < end; i++ {
		b.WriteString(m.renderSignalLine(f.Path, f.Signals[i], i == m.sigIndex, width-4))
		b.WriteByte('\n')
	}

	if s, ok := m.selected(); ok {
		b.WriteString(m.renderDetail(s, width-4))
	}

	return signalViewStyle.Width(width).Height(innerHeight).Render(b.String())
}

// detailHeight is the vertical budget for the selected-signal panel.
const detailHeight = 6

func (m Model) renderSignalLine(path string, s signal.Signal, selected bool, width int) string {
	loc := ""
	if len(s.Lines) > 0 {
		loc = fmt.Sprintf(":%d", s.Lines[0])
	}
	text := fmt.Sprintf("%s %-16s %s%s  %s", severityIcon(s.Severity), s.Category, shortPath(path), loc, s.Title)
	if len(text) > width && width > 1 {
		text = text[:width-1] + "…"
	}

	switch m.triage.State(path, s) {
	case StateAcknowledged:
		text = ackStyle.Render(text + " ✓")
	case StateDismissed:
		text = dismissedStyle.Render(text)
	default:
		text = severityStyle(s.Severity).Render(text)
	}
	if selected {
		return signalSelectedStyle.Render(text)
	}
	return text
}

func (m Model) renderDetail(s signal.Signal, width int) string {
	var b strings.Builder
	b.WriteByte('\n')
	if s.Snippet != "" {
		b.WriteString(snippetStyle.Width(width).Render(s.Snippet))
		b.WriteByte('\n')
	}
	if s.Reason != "" {
		b.WriteString(reasonStyle.Render(s.Reason))
		b.WriteByte('\n')
	}
	b.WriteString(reasonStyle.Render(fmt.Sprintf("class %s · weight %.2f · confidence %s",
		s.Class, s.Weight, s.Confidence)))
	for _, a := range s.Actions {
		b.WriteByte('\n')
		b.WriteString(actionStyle.Render("→ " + a.Text))
	}
	return b.String()
}

func shortPath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
