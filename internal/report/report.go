// Package report renders analyzed signals as text, JSON, or markdown.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// Color palette.
var (
	colorRed    = lipgloss.Color("#ff5555")
	colorYellow = lipgloss.Color("#f1fa8c")
	colorBlue   = lipgloss.Color("#8be9fd")
	colorDim    = lipgloss.Color("#6272a4")
	colorGreen  = lipgloss.Color("#50fa7b")
)

var (
	blockerStyle = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	infoStyle    = lipgloss.NewStyle().Foreground(colorBlue)
	pathStyle    = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	cleanStyle   = lipgloss.NewStyle().Foreground(colorGreen)
)

func severityStyle(sev signal.Severity) lipgloss.Style {
	switch sev {
	case signal.SeverityBlocker:
		return blockerStyle
	case signal.SeverityWarn:
		return warnStyle
	}
	return infoStyle
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

// Options controls text rendering.
type Options struct {
	Color    bool
	Snippets bool
}

// allSignals flattens files preserving order.
func allSignals(files []signal.FileSignals) []signal.Signal {
	var out []signal.Signal
	for _, f := range files {
		out = append(out, f.Signals...)
	}
	return out
}

// MaxSeverity is the rollup over every file in the report.
func MaxSeverity(files []signal.FileSignals) signal.Severity {
	return signal.MaxSeverity(allSignals(files))
}

// Text writes the human-readable report.
func Text(w io.Writer, files []signal.FileSignals, opts Options) error {
	render := func(st lipgloss.Style, s string) string {
		if !opts.Color {
			return s
		}
		return st.Render(s)
	}

	all := allSignals(files)
	summary := signal.Summarize(all)
	fmt.Fprintf(w, "%d file(s) analyzed, %d signal(s), %d on changed lines\n",
		len(files), summary.Total, summary.ChangedLineSignals)
	fmt.Fprintf(w, "Classes: %s\n\n", classLine(summary))

	if summary.Total == 0 {
		fmt.Fprintln(w, render(cleanStyle, "No signals."))
		return nil
	}

	for _, f := range files {
		if len(f.Signals) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s\n", render(pathStyle, f.Path))
		for _, s := range f.Signals {
			loc := ""
			if len(s.Lines) > 0 {
				loc = fmt.Sprintf(":%d", s.Lines[0])
			}
			head := fmt.Sprintf("%s [%s] %s%s: %s",
				severityIcon(s.Severity), s.Category, f.Path, loc, s.Title)
			fmt.Fprintf(w, "    %s\n", render(severityStyle(s.Severity), head))
			if s.Reason != "" {
				fmt.Fprintf(w, "       %s\n", render(dimStyle, s.Reason))
			}
			if opts.Snippets && s.Snippet != "" {
				fmt.Fprintf(w, "       %s\n", renderSnippet(f.Path, s.Snippet, opts.Color))
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func classLine(summary signal.SignalSummary) string {
	parts := make([]string, 0, 3)
	for _, c := range []signal.Class{signal.ClassCritical, signal.ClassBehavioral, signal.ClassMaintainability} {
		if n := summary.ByClass[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, c))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// jsonReport is the machine-readable document shape.
type jsonReport struct {
	MaxSeverity signal.Severity      `json:"max_severity"`
	Summary     signal.SignalSummary `json:"summary"`
	Files       []signal.FileSignals `json:"files"`
}

// JSON writes the full report as one indented document.
func JSON(w io.Writer, files []signal.FileSignals) error {
	out := jsonReport{
		MaxSeverity: MaxSeverity(files),
		Summary:     signal.Summarize(allSignals(files)),
		Files:       files,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Markdown writes a table report suitable for PR comments.
func Markdown(w io.Writer, files []signal.FileSignals) error {
	all := allSignals(files)
	summary := signal.Summarize(all)
	fmt.Fprintf(w, "## Signal Report\n\n")
	fmt.Fprintf(w, "**%d** file(s), **%d** signal(s), max severity **%s**\n\n",
		len(files), summary.Total, MaxSeverity(files))

	if summary.Total == 0 {
		fmt.Fprintln(w, "No signals.")
		return nil
	}

	fmt.Fprintln(w, "| Severity | Category | Location | Signal |")
	fmt.Fprintln(w, "|----------|----------|----------|--------|")
	for _, f := range files {
		for _, s := range f.Signals {
			loc := f.Path
			if len(s.Lines) > 0 {
				loc = fmt.Sprintf("%s:%d", f.Path, s.Lines[0])
			}
			fmt.Fprintf(w, "| %s | %s | `%s` | %s |\n", s.Severity, s.Category, loc, s.Title)
		}
	}

	if cats := topCategories(summary, 3); len(cats) > 0 {
		fmt.Fprintf(w, "\nTop categories: %s\n", strings.Join(cats, ", "))
	}
	return nil
}

// topCategories returns up to n category names by signal count, busiest
// first, ties broken alphabetically.
func topCategories(summary signal.SignalSummary, n int) []string {
	names := make([]string, 0, len(summary.ByCategory))
	for name := range summary.ByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := summary.ByCategory[names[i]], summary.ByCategory[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
