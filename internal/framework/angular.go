package framework

import (
	"regexp"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

const subscribeCleanupWindow = 30

var (
	angularMarker  = regexp.MustCompile(`from\s+['"]@angular/`)
	subscribeCall  = regexp.MustCompile(`\.subscribe\s*\(`)
	subscribeGuard = regexp.MustCompile(`takeUntil\s*\(|takeUntilDestroyed\s*\(|\bunsubscribe\s*\(|\basync\b\s*['"|]`)
	nativeElement  = regexp.MustCompile(`\.nativeElement\b`)
	detectChanges  = regexp.MustCompile(`\.detectChanges\s*\(`)
	innerHTMLBind  = regexp.MustCompile(`\[innerHTML\]\s*=`)
	anyInjection   = regexp.MustCompile(`constructor\s*\([^)]*:\s*any\b`)
)

// Angular is the layer for Angular component and service files.
func Angular() Layer {
	return Layer{
		Name: "angular",
		Applies: func(content, path string) bool {
			return hasExt(path, ".component.ts", ".service.ts", ".directive.ts") ||
				angularMarker.MatchString(content)
		},
		Probes: []detect.Probe{
			ruleProbe(angularRules),
			subscribeLeakProbe,
		},
	}
}

var angularRules = []detect.Rule{
	{
		ID:       "angular-security-inner-html",
		Title:    "[innerHTML] binding",
		Category: "angular",
		Pattern:  innerHTMLBind,
		Weight:   0.6,
		Tags:     []string{"security", "xss"},
		Reason:   "binding raw markup bypasses template sanitization guarantees",
		Actions: []signal.ActionRecommendation{{
			Type: "fix", Text: "pass the value through DomSanitizer or bind textContent",
		}},
	},
	{
		ID:       "angular-native-dom-access",
		Title:    "Direct nativeElement access",
		Category: "angular",
		Pattern:  nativeElement,
		Weight:   0.4,
		Tags:     []string{"dom"},
		Reason:   "touching nativeElement skips the renderer abstraction",
	},
	{
		ID:       "angular-manual-change-detection",
		Title:    "Manual detectChanges call",
		Category: "angular",
		Pattern:  detectChanges,
		Weight:   0.4,
		Tags:     []string{"rendering"},
		Reason:   "manual change detection often papers over a zone or binding problem",
	},
	{
		ID:         "angular-untyped-injection",
		Title:      "Untyped constructor injection",
		Category:   "angular",
		Pattern:    anyInjection,
		Weight:     0.3,
		Confidence: signal.ConfidenceLow,
		Tags:       []string{"types"},
		Reason:     "an any-typed dependency defeats injector and template type checking",
	},
}

// subscribeLeakProbe flags subscribe calls with no teardown marker nearby.
// The cleanup may legitimately live far away, so confidence stays low.
func subscribeLeakProbe(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) || !subscribeCall.MatchString(f.Line(n)) {
			continue
		}
		guarded := false
		lo := n - subscribeCleanupWindow
		if lo < 1 {
			lo = 1
		}
		hi := n + subscribeCleanupWindow
		if hi > len(f.Lines) {
			hi = len(f.Lines)
		}
		for l := lo; l <= hi; l++ {
			if subscribeGuard.MatchString(f.Line(l)) {
				guarded = true
				break
			}
		}
		if guarded {
			continue
		}
		out = append(out, f.Emit(detect.Draft{
			ID:         "angular-subscribe-no-teardown",
			Title:      "Subscription without teardown",
			Category:   "angular",
			Reason:     "a subscription with no unsubscribe, takeUntil, or async pipe leaks across component lifetimes",
			Weight:     0.5,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "no teardown marker within the window"},
			Tags:       []string{"rxjs", "leak"},
		}))
	}
	return out
}
