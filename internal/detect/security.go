package detect

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// Window constants for the contextual security heuristics.
const jsonParseTryWindow = 3

var (
	shellExec    = regexp.MustCompile(`\b(execSync|exec|spawn|spawnSync|execFile)\s*\(|child_process`)
	shellTaint   = regexp.MustCompile("\\$\\{|`\\s*\\+|\"\\s*\\+|'\\s*\\+")
	sqlQueryCall = regexp.MustCompile(`\.(query|execute)\s*\(\s*(` + "`" + `[^` + "`" + `]*\$\{|['"][^'"]*['"]\s*\+)`)
	reqDerived   = regexp.MustCompile(`req\.(body|query|params|headers)`)
	protoPollute = regexp.MustCompile(`Object\.assign\s*\([^)]*req\.(body|query|params)`)
	ssrfFetch    = regexp.MustCompile(`\b(fetch|axios\.?\w*|request|got)\s*\([^)]*req\.(body|query|params|headers)`)
	jsonParse    = regexp.MustCompile(`JSON\.parse\s*\(`)
	tryBlock     = regexp.MustCompile(`\btry\b`)
	lifecycle    = regexp.MustCompile(`"(postinstall|preinstall|prepare)"\s*:`)
)

// shellExecProbe flags shell execution; interpolation or concatenation on
// the same line escalates the weight (taint heuristic, text-only).
func shellExecProbe(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if commentLine.MatchString(text) || !shellExec.MatchString(text) {
			return
		}
		weight := 0.5
		reason := "spawns a shell or child process"
		conf := signal.ConfidenceMedium
		if shellTaint.MatchString(text) || reqDerived.MatchString(text) {
			weight = 0.8
			reason = "shell execution built from interpolated or request-derived input"
			conf = signal.ConfidenceHigh
		}
		out = append(out, f.Emit(Draft{
			ID:         "security-shell-exec",
			Title:      "Shell execution",
			Category:   "security",
			Reason:     reason,
			Weight:     weight,
			Lines:      []int{n},
			Confidence: conf,
			Evidence:   signal.Evidence{Kind: signal.EvidenceRegex, Pattern: shellExec.String()},
			Tags:       []string{"exec", "injection"},
			Actions: []signal.ActionRecommendation{
				{Type: "fix", Text: "Pass arguments as an array and never interpolate untrusted input"},
			},
		}))
	})
	return out
}

// sqlConcatProbe flags string concatenation or interpolation flowing into a
// query call.
func sqlConcatProbe(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if !sqlQueryCall.MatchString(text) {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "security-sql-concat-query",
			Title:    "SQL built by string concatenation",
			Category: "security",
			Reason:   "query text assembled from interpolated strings invites SQL injection",
			Weight:   0.8,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: sqlQueryCall.String()},
			Tags:     []string{"sql", "injection"},
			Actions: []signal.ActionRecommendation{
				{Type: "fix", Text: "Use parameterized queries or a query builder"},
			},
		}))
	})
	return out
}

func prototypePollutionProbe(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if !protoPollute.MatchString(text) {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "security-prototype-pollution",
			Title:    "Object.assign from request input",
			Category: "security",
			Reason:   "merging request-derived objects can pollute prototypes or overwrite fields",
			Weight:   0.7,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: protoPollute.String()},
			Tags:     []string{"prototype-pollution"},
			Actions: []signal.ActionRecommendation{
				{Type: "fix", Text: "Copy an explicit allow-list of fields instead of merging the raw object"},
			},
		}))
	})
	return out
}

func ssrfProbe(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if !ssrfFetch.MatchString(text) {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "security-ssrf-request-url",
			Title:    "Outbound request to request-derived URL",
			Category: "security",
			Reason:   "fetch target taken from request input enables SSRF",
			Weight:   0.7,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: ssrfFetch.String()},
			Tags:     []string{"ssrf", "network"},
			Actions: []signal.ActionRecommendation{
				{Type: "fix", Text: "Validate the target against an allow-list of hosts"},
			},
		}))
	})
	return out
}

// unsafeJSONParseProbe flags JSON.parse with no try block within the
// preceding window. Text heuristic only.
func unsafeJSONParseProbe(f *File) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if !jsonParse.MatchString(text) {
			return
		}
		for back := n; back >= n-jsonParseTryWindow && back >= 1; back-- {
			if tryBlock.MatchString(f.Line(back)) {
				return
			}
		}
		out = append(out, f.Emit(Draft{
			ID:         "unsafe-json-parse",
			Title:      "Unguarded JSON.parse",
			Category:   "security",
			Reason:     "JSON.parse throws on malformed input and no try block is nearby",
			Weight:     0.4,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "no try within preceding window"},
			Tags:       []string{"error-handling"},
		}))
	})
	return out
}

// manifestLifecycleProbe flags lifecycle scripts in package manifests.
func manifestLifecycleProbe(f *File) []signal.Signal {
	base := f.Path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if base != "package.json" {
		return nil
	}

	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		m := lifecycle.FindStringSubmatch(text)
		if m == nil {
			return
		}
		out = append(out, f.Emit(Draft{
			ID:       "security-lifecycle-script",
			Title:    "Package lifecycle script",
			Category: "security",
			Reason:   m[1] + " scripts run automatically on install and are a supply-chain risk",
			Weight:   0.6,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: lifecycle.String()},
			Tags:     []string{"supply-chain", "manifest"},
			Actions: []signal.ActionRecommendation{
				{Type: "review", Text: "Verify the script body and pin the packages it invokes"},
			},
		}))
	})
	return out
}
