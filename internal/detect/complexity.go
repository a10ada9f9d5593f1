package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// Window and threshold constants for the complexity battery.
const (
	largeFileLOC        = 500
	largeFileRatio      = 0.1
	mediumFileLOC       = 300
	mediumFileRatio     = 0.15
	deepNestingLevel    = 5
	longFunctionLines   = 50
	functionScanCap     = 200
	paramListMinChars   = 80
	paramListMinEntries = 5
)

var functionOpen = regexp.MustCompile(
	`^\s*(export\s+)?(default\s+)?(async\s+)?function\b|` +
		`^\s*(export\s+)?(const|let|var)\s+\w+\s*=\s*(async\s*)?(\([^)]*\)|\w+)\s*=>|` +
		`^\s*(public|private|protected|static)?\s*(async\s+)?\w+\s*\([^)]*\)\s*\{\s*$`)

var topLevelDecl = regexp.MustCompile(`^(export\s+)?(function|class|const|let|var|interface|type)\b`)

func complexityProbe(f *File) []signal.Signal {
	var out []signal.Signal
	out = append(out, largeFileSignal(f)...)
	out = append(out, deepNestingSignals(f)...)
	out = append(out, longFunctionSignals(f)...)
	out = append(out, highParamSignals(f)...)
	return out
}

// largeFileSignal fires when a big file absorbs a meaningful share of change.
func largeFileSignal(f *File) []signal.Signal {
	loc := len(f.Lines)
	if loc == 0 {
		return nil
	}
	ratio := float64(f.Focus.ChangedCount()) / float64(loc)

	if !((loc > largeFileLOC && ratio > largeFileRatio) ||
		(loc > mediumFileLOC && ratio > mediumFileRatio)) {
		return nil
	}

	weight := 0.4 + ratio
	if weight > 0.9 {
		weight = 0.9
	}

	return []signal.Signal{f.Emit(Draft{
		ID:       "large-file-change",
		Title:    "Large file absorbing significant change",
		Category: "complexity",
		Reason:   fmt.Sprintf("%d lines with %.0f%% of them changed", loc, ratio*100),
		Weight:   weight,
		Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: fmt.Sprintf("loc=%d ratio=%.3f", loc, ratio)},
		Tags:     []string{"size"},
	})}
}

// indentLevel counts leading whitespace in two-space units; tabs count as
// one unit each.
func indentLevel(line string) int {
	width := 0
	for _, r := range line {
		if r == ' ' {
			width++
		} else if r == '\t' {
			width += 2
		} else {
			break
		}
	}
	return width / 2
}

func deepNestingSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		if lvl := indentLevel(text); lvl >= deepNestingLevel {
			out = append(out, f.Emit(Draft{
				ID:       "deep-nesting",
				Title:    "Deeply nested code",
				Category: "complexity",
				Reason:   fmt.Sprintf("indentation depth %d suggests refactoring into smaller units", lvl),
				Weight:   0.4,
				Lines:    []int{n},
				Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: fmt.Sprintf("indent_level=%d", lvl)},
				Tags:     []string{"nesting"},
			}))
		}
	})
	return out
}

// functionEnd approximates where a function opened at line start (1-indexed)
// ends: the first later line that is exactly a closing brace at or below the
// starting indentation, or the next top-level declaration at or below it.
// The scan is capped and is deliberately not brace- or string-aware.
func (f *File) functionEnd(start int) int {
	startIndent := indentLevel(f.Line(start))
	limit := start + functionScanCap
	if limit > len(f.Lines) {
		limit = len(f.Lines)
	}

	fallback := 0
	for n := start + 1; n <= limit; n++ {
		text := f.Line(n)
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		ind := indentLevel(text)
		if (trimmed == "}" || trimmed == "};") && ind <= startIndent {
			return n
		}
		if fallback == 0 && ind <= startIndent && topLevelDecl.MatchString(trimmed) {
			fallback = n
		}
	}
	if fallback > 0 {
		return fallback
	}
	return limit
}

// longFunctionSignals flags functions longer than longFunctionLines that
// contain at least one changed line.
func longFunctionSignals(f *File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !functionOpen.MatchString(f.Line(n)) {
			continue
		}
		end := f.functionEnd(n)
		length := end - n + 1
		if length <= longFunctionLines {
			continue
		}
		touched := false
		for l := n; l <= end; l++ {
			if f.Focus.IsChanged(l) {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}
		out = append(out, f.Emit(Draft{
			ID:         "long-function-change",
			Title:      "Change inside a long function",
			Category:   "complexity",
			Reason:     fmt.Sprintf("function spanning ~%d lines (%d-%d) was modified", length, n, end),
			Weight:     0.5,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "approximate boundary scan, not brace-aware"},
			Tags:       []string{"function-size"},
		}))
	}
	return out
}

var paramList = regexp.MustCompile(fmt.Sprintf(`\(([^()]{%d,})\)`, paramListMinChars))

func highParamSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		m := paramList.FindStringSubmatch(text)
		if m == nil {
			return
		}
		entries := strings.Count(m[1], ",") + 1
		if entries < paramListMinEntries {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "high-parameter-count",
			Title:    "Long parameter list",
			Category: "complexity",
			Reason:   fmt.Sprintf("parameter list with %d entries; consider an options object", entries),
			Weight:   0.4,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: paramList.String()},
			Tags:     []string{"signature"},
		}))
	})
	return out
}
