package framework

import (
	"regexp"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

const handlerBodyWindow = 20

var (
	nodeMarker    = regexp.MustCompile(`require\s*\(|module\.exports\b|process\.env\b|from\s+['"]node:`)
	uncaughtHook  = regexp.MustCompile(`process\.on\s*\(\s*['"]uncaughtException['"]`)
	blockingCrypt = regexp.MustCompile(`\b(pbkdf2Sync|scryptSync|randomFillSync)\s*\(`)
	envAtTopLevel = regexp.MustCompile(`^(const|let|var)\s+\w+\s*=\s*process\.env\.\w+\s*;?\s*$`)
	routeHandler  = regexp.MustCompile(`\.(get|post|put|patch|delete|use)\s*\(\s*['"]`)
	handlerAsync  = regexp.MustCompile(`async\s*(\(|function)`)
	tryMarker     = regexp.MustCompile(`\btry\s*\{|\.catch\s*\(|\bnext\s*\(`)
	resSendUserIn = regexp.MustCompile(`res\.(send|write)\s*\([^)]*\breq\.(query|params|body)`)
)

// Node is the layer for generic server-side Node files.
func Node() Layer {
	return Layer{
		Name: "node",
		Applies: func(content, path string) bool {
			return hasExt(path, ".mjs", ".cjs") || nodeMarker.MatchString(content)
		},
		Probes: []detect.Probe{
			ruleProbe(nodeRules),
			unprotectedHandlerProbe,
		},
	}
}

var nodeRules = []detect.Rule{
	{
		ID:       "node-process-uncaught-exception",
		Title:    "uncaughtException handler",
		Category: "node",
		Pattern:  uncaughtHook,
		Weight:   0.5,
		Tags:     []string{"process"},
		Reason:   "swallowing uncaughtException leaves the process in an undefined state",
	},
	{
		ID:       "node-event-loop-blocking-crypto",
		Title:    "Synchronous crypto call",
		Category: "node",
		Pattern:  blockingCrypt,
		Weight:   0.4,
		Tags:     []string{"blocking"},
		Reason:   "sync key derivation blocks the event loop for every request",
	},
	{
		ID:       "node-security-reflected-input",
		Title:    "Request data echoed into the response",
		Category: "node",
		Pattern:  resSendUserIn,
		Weight:   0.6,
		Tags:     []string{"security", "xss"},
		Reason:   "reflecting unescaped request input enables injection",
		Actions: []signal.ActionRecommendation{{
			Type: "fix", Text: "escape or validate the request value before writing it to the response",
		}},
	},
	{
		ID:         "node-env-read-at-import",
		Title:      "Environment read at module load",
		Category:   "node",
		Pattern:    envAtTopLevel,
		Weight:     0.2,
		Confidence: signal.ConfidenceLow,
		Tags:       []string{"config"},
		Reason:     "env captured at import time ignores later configuration changes",
	},
}

// unprotectedHandlerProbe flags async route handlers whose body shows no
// error handling within the forward window. A rejected handler promise
// becomes an unhandled rejection in older Express versions.
func unprotectedHandlerProbe(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		text := f.Line(n)
		if !routeHandler.MatchString(text) || !handlerAsync.MatchString(text) {
			continue
		}
		protected := false
		for l := n; l <= n+handlerBodyWindow && l <= len(f.Lines); l++ {
			if tryMarker.MatchString(f.Line(l)) {
				protected = true
				break
			}
		}
		if protected {
			continue
		}
		out = append(out, f.Emit(detect.Draft{
			ID:         "node-async-handler-no-catch",
			Title:      "Async route handler without error handling",
			Category:   "node",
			Reason:     "a rejection in this handler never reaches the error middleware",
			Weight:     0.5,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "no try, catch, or next() within the handler window"},
			Tags:       []string{"async", "http"},
		}))
	}
	return out
}
