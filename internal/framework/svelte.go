package framework

import (
	"regexp"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

var (
	svelteMarker    = regexp.MustCompile(`from\s+['"]svelte[/'"]|\$:\s`)
	rawHTMLTag      = regexp.MustCompile(`\{@html\s`)
	storeSubscribe  = regexp.MustCompile(`\.subscribe\s*\(`)
	storeAutoPrefix = regexp.MustCompile(`\$\w+\s*=`)
	reactiveStmt    = regexp.MustCompile(`^\s*\$:\s`)
	eachNoKey       = regexp.MustCompile(`\{#each\s+[^}]*\}`)
	eachKeyed       = regexp.MustCompile(`\{#each\s+[^}]*\([^)]*\)\s*\}`)
	onMountAsync    = regexp.MustCompile(`onMount\s*\(\s*async\b`)
)

// Svelte is the layer for Svelte component files.
func Svelte() Layer {
	return Layer{
		Name: "svelte",
		Applies: func(content, path string) bool {
			return hasExt(path, ".svelte") || svelteMarker.MatchString(content)
		},
		Probes: []detect.Probe{
			ruleProbe(svelteRules),
			eachKeyProbe,
			reactiveMutationProbe,
		},
	}
}

var svelteRules = []detect.Rule{
	{
		ID:       "svelte-security-raw-html",
		Title:    "{@html} tag",
		Category: "svelte",
		Pattern:  rawHTMLTag,
		Weight:   0.6,
		Tags:     []string{"security", "xss"},
		Reason:   "@html injects unescaped markup into the document",
		Actions: []signal.ActionRecommendation{{
			Type: "fix", Text: "sanitize the markup or switch to text interpolation",
		}},
	},
	{
		ID:         "svelte-manual-store-subscribe",
		Title:      "Manual store subscription",
		Category:   "svelte",
		Pattern:    storeSubscribe,
		Weight:     0.3,
		Confidence: signal.ConfidenceLow,
		Tags:       []string{"store", "leak"},
		Reason:     "manual subscribe needs a matching unsubscribe; the $ prefix handles both",
	},
	{
		ID:       "svelte-async-on-mount",
		Title:    "Async onMount handler",
		Category: "svelte",
		Pattern:  onMountAsync,
		Weight:   0.3,
		Tags:     []string{"lifecycle"},
		Reason:   "an async onMount return value is not used as a destroy callback",
	},
}

// eachKeyProbe flags {#each} blocks without a keyed expression.
func eachKeyProbe(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		text := f.Line(n)
		if eachNoKey.MatchString(text) && !eachKeyed.MatchString(text) {
			out = append(out, f.Emit(detect.Draft{
				ID:       "svelte-each-without-key",
				Title:    "{#each} without a key",
				Category: "svelte",
				Reason:   "unkeyed each blocks patch by position and scramble state on reorder",
				Weight:   0.3,
				Lines:    []int{n},
				Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "no keyed expression in the each tag"},
				Tags:     []string{"rendering"},
			}))
		}
	}
	return out
}

// reactiveMutationProbe flags store assignments inside reactive statements,
// which re-trigger the statement they live in.
func reactiveMutationProbe(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		text := f.Line(n)
		if reactiveStmt.MatchString(text) && storeAutoPrefix.MatchString(text) {
			out = append(out, f.Emit(detect.Draft{
				ID:       "svelte-store-write-in-watch",
				Title:    "Store write inside a reactive statement",
				Category: "svelte",
				Reason:   "writing a store from $: can feed back into the same statement",
				Weight:   0.5,
				Lines:    []int{n},
				Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "store assignment on a reactive line"},
				Tags:     []string{"store", "loop"},
			}))
		}
	}
	return out
}
