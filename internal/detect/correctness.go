package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// Window constants for the correctness heuristics.
const (
	promiseHandlerWindow = 1
	emptyCatchWindow     = 2
	raceDeclWindow       = 30
	raceAsyncWindow      = 10
	intervalClearWindow  = 30
	loopExitWindow       = 20
)

var (
	promiseShapedCall = regexp.MustCompile(`\b(fetch|axios\.?\w*)\s*\(|\w+\.(get|post|put|patch|delete)\s*\(`)
	awaitOrThen       = regexp.MustCompile(`\bawait\b|\.then\s*\(|\breturn\b|=>`)
	catchOpen         = regexp.MustCompile(`\bcatch\s*(\([^)]*\))?\s*\{`)
	anyType           = regexp.MustCompile(`:\s*any\b|\bas\s+any\b|<any>`)
	letDecl           = regexp.MustCompile(`^\s*let\s+(\w+)`)
	reassign          = regexp.MustCompile(`^\s*(\w+)\s*([-+*/]?=)[^=]`)
	asyncMarker       = regexp.MustCompile(`\basync\b|\bawait\b`)
	setIntervalCall   = regexp.MustCompile(`\bsetInterval\s*\(`)
	clearIntervalCall = regexp.MustCompile(`\bclearInterval\s*\(`)
	infiniteLoop      = regexp.MustCompile(`\bwhile\s*\(\s*true\s*\)|\bfor\s*\(\s*;;\s*\)`)
	loopExit          = regexp.MustCompile(`\bbreak\b|\breturn\b|\bthrow\b|\b(retry|retries|attempt|attempts)\b`)
	lookaround        = regexp.MustCompile(`\(\?[=!<]`)
	boundedRepeat     = regexp.MustCompile(`\{\d+,\d*\}`)
	regexLiteral      = regexp.MustCompile(`(^|[=(,:\s])/[^/\n]{3,}/[gimsuy]*`)
)

func correctnessProbe(f *File) []signal.Signal {
	var out []signal.Signal
	out = append(out, unhandledPromiseSignals(f)...)
	out = append(out, emptyCatchSignals(f)...)
	out = append(out, anyTypeSignals(f)...)
	out = append(out, raceReassignmentSignals(f)...)
	out = append(out, intervalNoClearSignals(f)...)
	out = append(out, infiniteLoopSignals(f)...)
	out = append(out, complexRegexSignals(f)...)
	return out
}

// unhandledPromiseSignals flags promise-shaped calls with no await or .then
// on or near the line. Best-effort text matching, no flow analysis.
func unhandledPromiseSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if commentLine.MatchString(text) || !promiseShapedCall.MatchString(text) {
			return
		}
		for l := n - promiseHandlerWindow; l <= n+promiseHandlerWindow; l++ {
			if awaitOrThen.MatchString(f.Line(l)) {
				return
			}
		}
		out = append(out, f.Emit(Draft{
			ID:         "unhandled-promise",
			Title:      "Possibly unhandled promise",
			Category:   "correctness",
			Reason:     "promise-shaped call with neither await nor .then nearby",
			Weight:     0.5,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "text approximation, no flow analysis"},
			Tags:       []string{"promise", "async"},
		}))
	})
	return out
}

func emptyCatchSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if !catchOpen.MatchString(text) {
			return
		}
		rest := text[strings.Index(text, "{")+1:]
		if strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "}")) != "" {
			return
		}
		// Same-line "catch (e) {}" or a bare closing brace right after.
		empty := strings.Contains(rest, "}")
		if !empty {
			for l := n + 1; l <= n+emptyCatchWindow; l++ {
				body := strings.TrimSpace(f.Line(l))
				if body == "" {
					continue
				}
				empty = body == "}" || body == "};"
				break
			}
		}
		if !empty {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "empty-catch-block",
			Title:    "Empty catch block",
			Category: "correctness",
			Reason:   "errors are silently swallowed",
			Weight:   0.5,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: catchOpen.String()},
			Tags:     []string{"error-handling"},
		}))
	})
	return out
}

func anyTypeSignals(f *File) []signal.Signal {
	if !f.isTypeScript() {
		return nil
	}
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if commentLine.MatchString(text) || !anyType.MatchString(text) {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "any-type-usage",
			Title:    "any-typed value",
			Category: "correctness",
			Reason:   "any disables type checking at this boundary",
			Weight:   0.3,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: anyType.String()},
			Tags:     []string{"types"},
		}))
	})
	return out
}

// raceReassignmentSignals flags a let binding reassigned inside a window
// that also contains async constructs. Low confidence by design.
func raceReassignmentSignals(f *File) []signal.Signal {
	declared := make(map[string]int)
	for n := 1; n <= len(f.Lines); n++ {
		if m := letDecl.FindStringSubmatch(f.Line(n)); m != nil {
			if _, seen := declared[m[1]]; !seen {
				declared[m[1]] = n
			}
		}
	}
	if len(declared) == 0 {
		return nil
	}

	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		m := reassign.FindStringSubmatch(text)
		if m == nil {
			return
		}
		declLine, ok := declared[m[1]]
		if !ok || declLine >= n || n-declLine > raceDeclWindow {
			return
		}
		hasAsync := false
		for l := n - raceAsyncWindow; l <= n+raceAsyncWindow; l++ {
			if asyncMarker.MatchString(f.Line(l)) {
				hasAsync = true
				break
			}
		}
		if !hasAsync {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:         "async-let-reassignment",
			Title:      "let reassigned near async code",
			Category:   "correctness",
			Reason:     fmt.Sprintf("%q is reassigned in a window containing async constructs; interleavings may race", m[1]),
			Weight:     0.4,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "text approximation, no data-flow analysis"},
			Tags:       []string{"race", "async"},
		}))
	})
	return out
}

func intervalNoClearSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if !setIntervalCall.MatchString(text) {
			return
		}
		for l := n; l <= n+intervalClearWindow; l++ {
			if clearIntervalCall.MatchString(f.Line(l)) {
				return
			}
		}
		out = append(out, f.Emit(Draft{
			ID:       "timer-interval-no-clear",
			Title:    "setInterval without clearInterval",
			Category: "correctness",
			Reason:   "no clearInterval within the following window; possible leak",
			Weight:   0.5,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "window scan"},
			Tags:     []string{"timer", "leak"},
		}))
	})
	return out
}

func infiniteLoopSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if !infiniteLoop.MatchString(text) {
			return
		}
		for l := n + 1; l <= n+loopExitWindow; l++ {
			if loopExit.MatchString(f.Line(l)) {
				return
			}
		}
		out = append(out, f.Emit(Draft{
			ID:       "unconditional-loop",
			Title:    "Loop with no visible exit",
			Category: "correctness",
			Reason:   "while(true)/for(;;) with no break, return, throw, or retry counter nearby",
			Weight:   0.6,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "window scan"},
			Tags:     []string{"loop"},
		}))
	})
	return out
}

func complexRegexSignals(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if commentLine.MatchString(text) || !regexLiteral.MatchString(text) {
			return
		}
		if !lookaround.MatchString(text) && len(boundedRepeat.FindAllString(text, -1)) < 2 {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:         "complex-regex",
			Title:      "Complex regular expression",
			Category:   "correctness",
			Reason:     "lookaround or stacked bounded repetition is hard to review and can backtrack badly",
			Weight:     0.3,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "regex literal shape"},
			Tags:       []string{"regex"},
		}))
	})
	return out
}
