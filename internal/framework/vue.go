package framework

import (
	"regexp"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

const computedBodyWindow = 10

var (
	vueMarker         = regexp.MustCompile(`from\s+['"]@?vue[/'"]|require\(['"]vue['"]\)`)
	vHTML             = regexp.MustCompile(`\bv-html\s*=`)
	vForNoKey         = regexp.MustCompile(`\bv-for\s*=`)
	keyBinding        = regexp.MustCompile(`:key\s*=|v-bind:key\s*=`)
	forceUpdate       = regexp.MustCompile(`\$forceUpdate\s*\(`)
	propMutation      = regexp.MustCompile(`\bthis\.\$?props\.\w+\s*=[^=]|\bprops\.\w+\s*=[^=]`)
	deepWatch         = regexp.MustCompile(`\bdeep\s*:\s*true\b`)
	computedOpen      = regexp.MustCompile(`\bcomputed\s*[(:]|computed\s*=|\bcomputed\s*\(\s*\(`)
	networkInComputed = regexp.MustCompile(`\bfetch\s*\(|\baxios\b|\$http\b`)
)

// Vue is the layer for Vue single-file components and composition files.
func Vue() Layer {
	return Layer{
		Name: "vue",
		Applies: func(content, path string) bool {
			return hasExt(path, ".vue") || vueMarker.MatchString(content)
		},
		Probes: []detect.Probe{
			ruleProbe(vueRules),
			vForKeyProbe,
			computedNetworkProbe,
		},
	}
}

var vueRules = []detect.Rule{
	{
		ID:       "vue-security-v-html",
		Title:    "v-html binding",
		Category: "vue",
		Pattern:  vHTML,
		Weight:   0.6,
		Tags:     []string{"security", "xss"},
		Reason:   "v-html renders raw markup and can execute injected script",
		Actions: []signal.ActionRecommendation{{
			Type: "fix", Text: "sanitize the value or render it as text interpolation",
		}},
	},
	{
		ID:       "vue-prop-mutation",
		Title:    "Direct prop mutation",
		Category: "vue",
		Pattern:  propMutation,
		Weight:   0.5,
		Tags:     []string{"state"},
		Reason:   "props are owned by the parent; mutate a local copy or emit instead",
	},
	{
		ID:       "vue-force-dom-update",
		Title:    "$forceUpdate call",
		Category: "vue",
		Pattern:  forceUpdate,
		Weight:   0.4,
		Tags:     []string{"rendering"},
		Reason:   "forcing a re-render usually hides a missing reactive dependency",
	},
	{
		ID:         "vue-deep-watcher",
		Title:      "Deep watcher",
		Category:   "vue",
		Pattern:    deepWatch,
		Weight:     0.3,
		Confidence: signal.ConfidenceLow,
		Tags:       []string{"performance"},
		Reason:     "deep watchers traverse the whole object on every change",
	},
}

// vForKeyProbe flags v-for bindings without a :key on the same line.
func vForKeyProbe(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		text := f.Line(n)
		if vForNoKey.MatchString(text) && !keyBinding.MatchString(text) {
			out = append(out, f.Emit(detect.Draft{
				ID:       "vue-v-for-without-key",
				Title:    "v-for without :key",
				Category: "vue",
				Reason:   "list rendering without keys breaks patching when items reorder",
				Weight:   0.3,
				Lines:    []int{n},
				Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "no :key binding on the v-for line"},
				Tags:     []string{"rendering"},
			}))
		}
	}
	return out
}

// computedNetworkProbe flags computed properties whose body issues a network
// call within the forward window. Computed getters must stay synchronous and
// side-effect free.
func computedNetworkProbe(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) || !computedOpen.MatchString(f.Line(n)) {
			continue
		}
		for l := n; l <= n+computedBodyWindow && l <= len(f.Lines); l++ {
			if networkInComputed.MatchString(f.Line(l)) {
				out = append(out, f.Emit(detect.Draft{
					ID:       "vue-computed-network-call",
					Title:    "Network call inside a computed property",
					Category: "vue",
					Reason:   "computed getters re-run on dependency change and must not perform I/O",
					Weight:   0.6,
					Lines:    []int{l},
					Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "network call within the computed body window"},
					Tags:     []string{"side-effects", "network"},
				}))
				break
			}
		}
	}
	return out
}
