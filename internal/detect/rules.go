package detect

import (
	"regexp"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// Rule is a declarative single-line probe. The rule tables are the canonical
// representation of the per-line battery; one scanner evaluates them all.
type Rule struct {
	ID         string
	Title      string
	Category   string
	Pattern    *regexp.Regexp
	Weight     float64
	Confidence signal.Confidence
	Tags       []string
	Reason     string
	Actions    []signal.ActionRecommendation
}

// commentLine matches lines that are only a comment.
var commentLine = regexp.MustCompile(`^\s*(//|#|\*|/\*)`)

// ScanRules runs every rule over every focus line. A non-matching line
// yields nothing; comment-only lines are skipped. One signal per rule per
// matching line.
func ScanRules(f *File, rules []Rule) []signal.Signal {
	var out []signal.Signal
	f.eachFocusLine(func(n int, text string) {
		if commentLine.MatchString(text) {
			return
		}
		for i := range rules {
			r := &rules[i]
			if r.Pattern.MatchString(text) {
				out = append(out, f.Emit(Draft{
					ID:         r.ID,
					Title:      r.Title,
					Category:   r.Category,
					Reason:     r.Reason,
					Weight:     r.Weight,
					Lines:      []int{n},
					Confidence: r.Confidence,
					Evidence:   signal.Evidence{Kind: signal.EvidenceRegex, Pattern: r.Pattern.String()},
					Tags:       r.Tags,
					Actions:    r.Actions,
				}))
			}
		}
	})
	return out
}

// genericRules is the fixed per-line catalog for the generic battery:
// side-effects, per-line async constructs, per-line exported declarations,
// and the single-line security probes. Multi-line heuristics live in their
// own probe functions.
var genericRules = []Rule{
	// --- side-effects ---
	{
		ID:       "network-call",
		Title:    "Network call",
		Category: "side-effects",
		Pattern:  regexp.MustCompile(`\bfetch\s*\(|\baxios\.?\w*\s*\(|new\s+XMLHttpRequest|\bhttp\.(get|post|request)\s*\(`),
		Weight:   0.5,
		Tags:     []string{"network", "io"},
		Reason:   "performs a network request",
	},
	{
		ID:       "browser-storage-access",
		Title:    "Browser storage access",
		Category: "side-effects",
		Pattern:  regexp.MustCompile(`\b(localStorage|sessionStorage|indexedDB)\.|document\.cookie`),
		Weight:   0.4,
		Tags:     []string{"storage", "browser"},
		Reason:   "reads or writes browser storage",
	},
	{
		ID:       "timer-scheduling",
		Title:    "Timer scheduled",
		Category: "side-effects",
		Pattern:  regexp.MustCompile(`\bset(Timeout|Interval|Immediate)\s*\(|\brequestAnimationFrame\s*\(`),
		Weight:   0.4,
		Tags:     []string{"timer"},
		Reason:   "schedules deferred work",
	},
	{
		ID:       "global-mutation",
		Title:    "Global state mutation",
		Category: "side-effects",
		Pattern:  regexp.MustCompile(`\b(window|globalThis|global)\.\w+\s*=[^=]`),
		Weight:   0.5,
		Tags:     []string{"global"},
		Reason:   "assigns to global scope",
	},
	{
		ID:       "process-control",
		Title:    "Process control",
		Category: "side-effects",
		Pattern:  regexp.MustCompile(`\bprocess\.(exit|kill|abort)\s*\(`),
		Weight:   0.5,
		Tags:     []string{"process"},
		Reason:   "terminates or signals the process",
	},
	{
		ID:       "filesystem-sync-io",
		Title:    "Synchronous filesystem call",
		Category: "side-effects",
		Pattern:  regexp.MustCompile(`\bfs\.\w+Sync\s*\(`),
		Weight:   0.5,
		Tags:     []string{"filesystem", "blocking"},
		Reason:   "blocks the event loop on filesystem I/O",
	},
	{
		ID:       "filesystem-io",
		Title:    "Filesystem call",
		Category: "side-effects",
		Pattern:  regexp.MustCompile(`\bfs\.(promises\.)?(readFile|writeFile|appendFile|unlink|mkdir|rm|rename|readdir|stat)\s*\(`),
		Weight:   0.4,
		Tags:     []string{"filesystem"},
		Reason:   "touches the filesystem",
	},
	{
		ID:       "database-query",
		Title:    "Database call",
		Category: "side-effects",
		Pattern:  regexp.MustCompile(`\.(query|execute)\s*\(|\b(prisma|knex|mongoose|sequelize|typeorm)\.`),
		Weight:   0.5,
		Tags:     []string{"database"},
		Reason:   "executes a database operation",
	},
	{
		ID:       "dom-mutation",
		Title:    "DOM mutation",
		Category: "side-effects",
		Pattern:  regexp.MustCompile(`document\.(createElement|write)\s*\(|\.(appendChild|removeChild|insertBefore|setAttribute|replaceChildren)\s*\(`),
		Weight:   0.4,
		Tags:     []string{"dom"},
		Reason:   "mutates the document tree directly",
	},
	{
		ID:         "console-logging",
		Title:      "Console logging",
		Category:   "side-effects",
		Pattern:    regexp.MustCompile(`\bconsole\.(log|info|warn|error|debug|trace)\s*\(`),
		Weight:     0.2,
		Confidence: signal.ConfidenceHigh,
		Tags:       []string{"logging"},
		Reason:     "writes to the console",
	},

	// --- async per-line constructs ---
	{
		ID:       "promise-construct",
		Title:    "Promise construct",
		Category: "async",
		Pattern:  regexp.MustCompile(`new\s+Promise\s*\(|\.then\s*\(|\.catch\s*\(|\bPromise\.(all|race|allSettled|any)\s*\(`),
		Weight:   0.3,
		Tags:     []string{"promise"},
		Reason:   "promise chaining or construction",
	},
	{
		ID:       "event-listener-registration",
		Title:    "Event listener registered or removed",
		Category: "async",
		Pattern:  regexp.MustCompile(`\b(addEventListener|removeEventListener)\s*\(`),
		Weight:   0.4,
		Tags:     []string{"event", "listener"},
		Reason:   "registers or removes an event listener",
	},

	// --- signature per-line ---
	{
		ID:       "exported-declaration",
		Title:    "Exported declaration changed",
		Category: "signature",
		Pattern:  regexp.MustCompile(`^\s*export\s+(default\s+)?(async\s+)?(function|class|const|let|var)\b|^\s*module\.exports\b`),
		Weight:   0.3,
		Tags:     []string{"api-surface"},
		Reason:   "touches an exported symbol",
	},

	// --- security single-line ---
	{
		ID:         "security-eval-usage",
		Title:      "Dynamic code evaluation",
		Category:   "security",
		Pattern:    regexp.MustCompile(`\beval\s*\(|new\s+Function\s*\(`),
		Weight:     0.8,
		Confidence: signal.ConfidenceHigh,
		Tags:       []string{"injection"},
		Reason:     "eval and the Function constructor execute arbitrary strings",
		Actions: []signal.ActionRecommendation{
			{Type: "fix", Text: "Replace dynamic evaluation with explicit logic or a safe parser"},
		},
	},
	{
		ID:       "security-xss-sink",
		Title:    "Raw HTML sink",
		Category: "security",
		Pattern:  regexp.MustCompile(`\.innerHTML\s*=|\.outerHTML\s*=|dangerouslySetInnerHTML|insertAdjacentHTML\s*\(`),
		Weight:   0.7,
		Tags:     []string{"xss", "dom"},
		Reason:   "raw HTML assignment is an XSS sink unless the input is sanitized",
		Actions: []signal.ActionRecommendation{
			{Type: "fix", Text: "Use textContent or sanitize the markup before insertion"},
		},
	},
	{
		ID:       "hardcoded-secret",
		Title:    "Hardcoded secret-shaped literal",
		Category: "security",
		Pattern:  regexp.MustCompile(`(?i)\b(api[_-]?key|secret|password|token|private[_-]?key)\b\s*[:=]\s*["'][A-Za-z0-9_\-/+=]{8,}["']`),
		Weight:   0.8,
		Tags:     []string{"secret"},
		Reason:   "literal assigned to a secret-named identifier",
		Actions: []signal.ActionRecommendation{
			{Type: "fix", Text: "Move the value to environment configuration or a secret store"},
		},
	},
	{
		ID:       "security-sensitive-logging",
		Title:    "Sensitive value logged",
		Category: "security",
		Pattern:  regexp.MustCompile(`(?i)console\.\w+\s*\(.*(password|token|secret|credential|apikey|api_key)`),
		Weight:   0.6,
		Tags:     []string{"logging", "secret"},
		Reason:   "logs a value named like a credential",
		Actions: []signal.ActionRecommendation{
			{Type: "fix", Text: "Redact the value or drop the log line"},
		},
	},
	{
		ID:       "security-weak-hash",
		Title:    "Weak hash algorithm",
		Category: "security",
		Pattern:  regexp.MustCompile(`(?i)\b(md5|sha-?1)\b`),
		Weight:   0.5,
		Tags:     []string{"crypto"},
		Reason:   "MD5 and SHA-1 are broken for integrity and password use",
	},
	{
		ID:       "security-cors-wildcard",
		Title:    "CORS wildcard origin",
		Category: "security",
		Pattern:  regexp.MustCompile(`Access-Control-Allow-Origin['"]?\s*[,:]\s*['"]\*|origin\s*:\s*['"]\*['"]`),
		Weight:   0.6,
		Tags:     []string{"cors", "http"},
		Reason:   "wildcard origin disables cross-origin isolation",
		Actions: []signal.ActionRecommendation{
			{Type: "fix", Text: "Restrict the allowed origin list"},
		},
	},
}
