package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/sigscan/internal/signal"
)

const (
	commentedRunMin    = 4  // runs >3 commented statement-shaped lines
	duplicateLineMin   = 3  // occurrences before a cluster is reported
	duplicateLineChars = 30 // trimmed length below which lines are ignored
	shortThrowChars    = 10
)

var (
	todoMarker       = regexp.MustCompile(`(?i)\b(TODO|FIXME)\b`)
	ticketRef        = regexp.MustCompile(`[A-Z][A-Z0-9]+-\d+|#\d+`)
	commentedStmt    = regexp.MustCompile(`^\s*//\s*(\w+\s*[({=.]|return\b|if\b|for\b|while\b|const\b|let\b|var\b|function\b|import\b|export\b)`)
	magicNumber      = regexp.MustCompile(`\b\d{3,}\b`)
	exportedIdent    = regexp.MustCompile(`^\s*export\s+(?:default\s+)?(?:async\s+)?(?:function|class|const|let|var)\s+(\w+)`)
	shortThrow       = regexp.MustCompile(`throw\s+new\s+\w*Error\s*\(\s*['"]([^'"]*)['"]`)
	disabledTestCall = regexp.MustCompile(`\.(skip|only)\s*\(|\bxit\s*\(|\bxdescribe\s*\(`)
)

// magicAllowList holds numbers too common to flag: HTTP statuses, powers of
// two, round time values.
var magicAllowList = map[string]bool{
	"100": true, "200": true, "201": true, "204": true, "301": true,
	"302": true, "304": true, "400": true, "401": true, "403": true,
	"404": true, "500": true, "1000": true, "1024": true, "2048": true,
	"4096": true, "8080": true, "3000": true, "3600": true, "24000": true,
	"60000": true, "86400": true,
}

func maintainabilityProbe(f *File) []signal.Signal {
	var out []signal.Signal
	out = append(out, todoSignals(f)...)
	out = append(out, commentedCodeSignals(f)...)
	out = append(out, magicNumberSignals(f)...)
	out = append(out, singleUseExportSignals(f)...)
	out = append(out, shortThrowSignals(f)...)
	out = append(out, duplicateLineSignals(f)...)
	out = append(out, disabledTestSignals(f)...)
	return out
}

func todoSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if !todoMarker.MatchString(text) || ticketRef.MatchString(text) {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "untracked-todo",
			Title:    "TODO without ticket reference",
			Category: "maintainability",
			Reason:   "TODO/FIXME markers without an issue reference tend to rot",
			Weight:   0.2,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: todoMarker.String()},
			Tags:     []string{"todo"},
		}))
	})
	return out
}

// commentedCodeSignals reports runs of more than three consecutive
// commented-out statement-shaped lines, one signal per run.
func commentedCodeSignals(f *File) []signal.Signal {
	var out []signal.Signal
	runStart, runLen := 0, 0

	flush := func() {
		if runLen >= commentedRunMin && f.Focus.ShouldAnalyze(runStart) {
			out = append(out, f.Emit(Draft{
				ID:       "commented-out-code",
				Title:    "Block of commented-out code",
				Category: "maintainability",
				Reason:   fmt.Sprintf("%d consecutive lines of disabled code; delete or restore it", runLen),
				Weight:   0.3,
				Lines:    []int{runStart},
				Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: commentedStmt.String()},
				Tags:     []string{"dead-code"},
			}))
		}
		runStart, runLen = 0, 0
	}

	for n := 1; n <= len(f.Lines); n++ {
		if commentedStmt.MatchString(f.Lines[n-1]) {
			if runLen == 0 {
				runStart = n
			}
			runLen++
			continue
		}
		flush()
	}
	flush()
	return out
}

func magicNumberSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if commentLine.MatchString(text) {
			return
		}
		for _, num := range magicNumber.FindAllString(text, -1) {
			if magicAllowList[num] {
				continue
			}
			out = append(out, f.Emit(Draft{
				ID:       "magic-number",
				Title:    "Magic number",
				Category: "maintainability",
				Reason:   fmt.Sprintf("unexplained literal %s; name it as a constant", num),
				Weight:   0.2,
				Lines:    []int{n},
				Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: magicNumber.String()},
				Tags:     []string{"literal"},
			}))
			break // one per line is enough
		}
	})
	return out
}

// singleUseExportSignals flags exported identifiers whose name appears
// exactly once in the file — dead-code candidates when nothing imports them.
func singleUseExportSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		m := exportedIdent.FindStringSubmatch(text)
		if m == nil {
			return
		}
		if strings.Count(f.Content, m[1]) > 1 {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:         "single-use-export",
			Title:      "Exported identifier used once",
			Category:   "maintainability",
			Reason:     fmt.Sprintf("%q is exported but referenced nowhere else in this file", m[1]),
			Weight:     0.2,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "file-local occurrence count"},
			Tags:       []string{"dead-code"},
		}))
	})
	return out
}

func shortThrowSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		m := shortThrow.FindStringSubmatch(text)
		if m == nil || len(m[1]) >= shortThrowChars {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "terse-error-message",
			Title:    "Terse thrown error message",
			Category: "maintainability",
			Reason:   fmt.Sprintf("error message %q carries too little context to debug", m[1]),
			Weight:   0.2,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: shortThrow.String()},
			Tags:     []string{"error-handling"},
		}))
	})
	return out
}

// duplicateLineSignals reports the first cluster of a long line repeated at
// least three times across focus lines.
func duplicateLineSignals(f *File) []signal.Signal {
	counts := make(map[string][]int)
	f.eachFocusLine(func(n int, text string) {
		trimmed := strings.TrimSpace(text)
		if len(trimmed) < duplicateLineChars || commentLine.MatchString(text) {
			return
		}
		counts[trimmed] = append(counts[trimmed], n)
	})

	best := ""
	for text, lines := range counts {
		if len(lines) < duplicateLineMin {
			continue
		}
		if best == "" || lines[0] < counts[best][0] {
			best = text
		}
	}
	if best == "" {
		return nil
	}

	lines := counts[best]
	return []signal.Signal{f.Emit(Draft{
		ID:       "duplicated-line-cluster",
		Title:    "Repeated identical line",
		Category: "maintainability",
		Reason:   fmt.Sprintf("the same line appears %d times; extract a helper", len(lines)),
		Weight:   0.3,
		Lines:    lines,
		Snippet:  best,
		Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "exact trimmed-line comparison"},
		Tags:     []string{"duplication"},
	})}
}

func disabledTestSignals(f *File) []signal.Signal {
	if !f.isTestFile() {
		return nil
	}
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if !disabledTestCall.MatchString(text) {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "disabled-test",
			Title:    "Disabled or exclusive test",
			Category: "maintainability",
			Reason:   ".skip/.only/xit/xdescribe silently changes what the suite covers",
			Weight:   0.3,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: disabledTestCall.String()},
			Tags:     []string{"tests"},
		}))
	})
	return out
}
