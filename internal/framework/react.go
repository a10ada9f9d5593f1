package framework

import (
	"fmt"
	"regexp"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

// Window constants for the React file-scope probes.
const (
	effectCloseWindow = 15
	hookMemoThreshold = 8
)

var (
	reactMarker    = regexp.MustCompile(`from\s+['"]react['"]|require\(['"]react['"]\)|import\s+React\b`)
	effectOpen     = regexp.MustCompile(`\buse(Effect|LayoutEffect|Memo|Callback)\s*\(`)
	effectDepsEnd  = regexp.MustCompile(`\}?\s*,\s*\[`)
	effectBareEnd  = regexp.MustCompile(`^\s*\}\s*\)`)
	hookCall       = regexp.MustCompile(`\buse[A-Z]\w*\s*\(`)
	memoHook       = regexp.MustCompile(`\buse(Memo|Callback)\s*\(|\bReact\.memo\s*\(`)
	conditionalUse = regexp.MustCompile(`\bif\s*\([^)]*\)\s*\{?\s*use[A-Z]|\bif\b.*\buse[A-Z]\w*\s*\(`)
	indexKey       = regexp.MustCompile(`\bkey\s*=\s*\{\s*(index|i|idx)\s*\}`)
	setterInLoop   = regexp.MustCompile(`\b(for|while)\s*\(`)
	stateSetter    = regexp.MustCompile(`\bset[A-Z]\w*\s*\(`)
	inlineObjProp  = regexp.MustCompile(`\w+\s*=\s*\{\{`)
	effectSameLine = regexp.MustCompile(`\}\s*\)\s*;?\s*$`)
)

// React is the layer for React component files.
func React() Layer {
	return Layer{
		Name: "react",
		Applies: func(content, path string) bool {
			return hasExt(path, ".jsx", ".tsx") || reactMarker.MatchString(content)
		},
		Probes: []detect.Probe{
			missingEffectDepsProbe,
			hookMemoizationProbe,
			ruleProbe(reactRules),
			stateSetterInLoopProbe,
		},
	}
}

var reactRules = []detect.Rule{
	{
		ID:       "react-conditional-hook",
		Title:    "Hook called conditionally",
		Category: "react",
		Pattern:  conditionalUse,
		Weight:   0.6,
		Tags:     []string{"hooks"},
		Reason:   "hooks must be called unconditionally in the same order every render",
	},
	{
		ID:       "react-index-as-key",
		Title:    "Array index used as key",
		Category: "react",
		Pattern:  indexKey,
		Weight:   0.3,
		Tags:     []string{"rendering"},
		Reason:   "index keys break reconciliation when the list reorders",
	},
	{
		ID:         "react-inline-object-prop",
		Title:      "Inline object literal prop",
		Category:   "react",
		Pattern:    inlineObjProp,
		Weight:     0.2,
		Confidence: signal.ConfidenceLow,
		Tags:       []string{"rendering"},
		Reason:     "a fresh object every render defeats memoized children",
	},
	{
		ID:       "react-direct-dom-access",
		Title:    "Direct DOM access in a component",
		Category: "react",
		Pattern:  regexp.MustCompile(`document\.(getElementById|querySelector)\s*\(`),
		Weight:   0.4,
		Tags:     []string{"dom"},
		Reason:   "bypassing refs couples the component to the real DOM",
	},
}

// missingEffectDepsProbe finds effect hooks whose closing line carries no
// dependency array within the forward window.
func missingEffectDepsProbe(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) || !effectOpen.MatchString(f.Line(n)) {
			continue
		}
		// Single-line hook: useEffect(() => { ... }) with or without deps.
		if effectDepsEnd.MatchString(f.Line(n)) {
			continue
		}
		missing := false
		for l := n; l <= n+effectCloseWindow && l <= len(f.Lines); l++ {
			text := f.Line(l)
			if l > n && effectDepsEnd.MatchString(text) {
				break
			}
			if (l == n && effectSameLine.MatchString(text)) ||
				(l > n && effectBareEnd.MatchString(text)) {
				missing = true
				break
			}
		}
		if !missing {
			continue
		}
		out = append(out, f.Emit(detect.Draft{
			ID:       "react-missing-effect-deps",
			Title:    "Effect hook without dependency array",
			Category: "react",
			Reason:   "an effect with no dependency array runs after every render",
			Weight:   0.5,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "no dependency array before the closing line"},
			Tags:     []string{"hooks", "effect"},
		}))
	}
	return out
}

// hookMemoizationProbe flags files with many hooks and no memoization.
func hookMemoizationProbe(f *detect.File) []signal.Signal {
	hooks := 0
	var first int
	for n := 1; n <= len(f.Lines); n++ {
		if hookCall.MatchString(f.Line(n)) {
			if first == 0 {
				first = n
			}
			hooks++
		}
	}
	if hooks <= hookMemoThreshold || memoHook.MatchString(f.Content) {
		return nil
	}
	return []signal.Signal{f.Emit(detect.Draft{
		ID:         "react-many-hooks-no-memo",
		Title:      "Many hooks without memoization",
		Category:   "react",
		Reason:     fmt.Sprintf("%d hook calls and no useMemo/useCallback in the file", hooks),
		Weight:     0.4,
		Lines:      []int{first},
		Confidence: signal.ConfidenceLow,
		Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: fmt.Sprintf("hook_count=%d", hooks)},
		Tags:       []string{"hooks", "performance"},
	})}
}

// stateSetterInLoopProbe flags state setters called inside loop bodies.
func stateSetterInLoopProbe(f *detect.File) []signal.Signal {
	const loopBodyWindow = 5
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) || !setterInLoop.MatchString(f.Line(n)) {
			continue
		}
		for l := n + 1; l <= n+loopBodyWindow && l <= len(f.Lines); l++ {
			if stateSetter.MatchString(f.Line(l)) {
				out = append(out, f.Emit(detect.Draft{
					ID:       "react-state-update-in-loop",
					Title:    "State setter inside a loop",
					Category: "react",
					Reason:   "each setter call schedules a render; batch the update instead",
					Weight:   0.4,
					Lines:    []int{l},
					Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "setter within loop body window"},
					Tags:     []string{"state", "performance"},
				}))
				break
			}
		}
	}
	return out
}
