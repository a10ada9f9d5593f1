package detect

import (
	"strings"
	"testing"

	"github.com/sprite-ai/sigscan/internal/signal"
)

func run(t *testing.T, content, path string, opts Options) []signal.Signal {
	t.Helper()
	return NewGeneric().Detect(content, path, opts)
}

func withID(signals []signal.Signal, id string) []signal.Signal {
	var out []signal.Signal
	for _, s := range signals {
		if s.ID == id {
			out = append(out, s)
		}
	}
	return out
}

func TestGenericScenario(t *testing.T) {
	signals := run(t, "window.x = 1;\nfetch('/api');\n", "test.ts", Options{})

	globals := withID(signals, "global-mutation")
	if len(globals) != 1 || globals[0].Lines[0] != 1 {
		t.Fatalf("expected global-mutation on line 1, got %v", globals)
	}
	network := withID(signals, "network-call")
	if len(network) != 1 || network[0].Lines[0] != 2 {
		t.Fatalf("expected network-call on line 2, got %v", network)
	}
	for _, s := range append(globals, network...) {
		if !s.InChangedRange {
			t.Errorf("%s: whole-file mode must mark signals in changed range", s.ID)
		}
	}
}

func TestSignalDefaults(t *testing.T) {
	signals := run(t, "fetch('/api');\n", "a.ts", Options{})
	s := withID(signals, "network-call")
	if len(s) == 0 {
		t.Fatal("no network-call signal")
	}
	if s[0].Confidence != signal.ConfidenceMedium {
		t.Errorf("default confidence = %s, want medium", s[0].Confidence)
	}
	if s[0].Evidence.Kind != signal.EvidenceRegex {
		t.Errorf("default evidence kind = %s, want regex", s[0].Evidence.Kind)
	}
	if s[0].Class != signal.ClassBehavioral {
		t.Errorf("network-call class = %s, want behavioral", s[0].Class)
	}
	if s[0].Snippet != "fetch('/api');" {
		t.Errorf("snippet = %q", s[0].Snippet)
	}
}

func TestFocusScoping(t *testing.T) {
	// fetch is on line 20, far outside the focus window of the change.
	var b strings.Builder
	for i := 1; i <= 30; i++ {
		if i == 20 {
			b.WriteString("fetch('/api');\n")
		} else {
			b.WriteString("const x" + strings.Repeat("x", i) + " = 1;\n")
		}
	}
	opts := Options{ChangedRanges: []signal.ChangedRange{{StartLine: 1, EndLine: 2}}, ContextLines: 5}
	signals := run(t, b.String(), "a.js", opts)
	if got := withID(signals, "network-call"); len(got) != 0 {
		t.Errorf("network-call outside focus window leaked through: %v", got)
	}
}

func TestDeepNestingBoundary(t *testing.T) {
	ten := strings.Repeat(" ", 10) + "doIt();\n"
	eight := strings.Repeat(" ", 8) + "doIt();\n"

	if got := withID(run(t, ten, "a.js", Options{}), "deep-nesting"); len(got) != 1 {
		t.Errorf("10 leading spaces: got %d deep-nesting signals, want 1", len(got))
	}
	if got := withID(run(t, eight, "a.js", Options{}), "deep-nesting"); len(got) != 0 {
		t.Errorf("8 leading spaces: got %d deep-nesting signals, want 0", len(got))
	}
	blank := strings.Repeat(" ", 12) + "\n"
	if got := withID(run(t, blank, "a.js", Options{}), "deep-nesting"); len(got) != 0 {
		t.Error("blank line must not trigger deep-nesting")
	}
}

func TestLargeFileRatioThresholds(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 600; i++ {
		b.WriteString("const v = 1;\n")
	}
	content := b.String()

	hot := Options{ChangedRanges: []signal.ChangedRange{{StartLine: 1, EndLine: 70}}}
	if got := withID(run(t, content, "a.js", hot), "large-file-change"); len(got) != 1 {
		t.Errorf("600 loc / 70 changed: got %d large-file signals, want 1", len(got))
	}

	cold := Options{ChangedRanges: []signal.ChangedRange{{StartLine: 1, EndLine: 30}}}
	if got := withID(run(t, content, "a.js", cold), "large-file-change"); len(got) != 0 {
		t.Errorf("600 loc / 30 changed: got %d large-file signals, want 0", len(got))
	}
}

func TestHighParameterCount(t *testing.T) {
	line := "function configure(alphaOptionValue, betaOptionValue, gammaOptionValue, deltaOptionValue, epsilonOptionValue, zetaOptionValue) {}\n"
	if got := withID(run(t, line, "a.js", Options{}), "high-parameter-count"); len(got) != 1 {
		t.Errorf("got %d high-parameter-count signals, want 1", len(got))
	}
	short := "function f(a, b) {}\n"
	if got := withID(run(t, short, "a.js", Options{}), "high-parameter-count"); len(got) != 0 {
		t.Error("short parameter list flagged")
	}
}

func TestSecurityProbes(t *testing.T) {
	cases := []struct {
		name, content, id string
	}{
		{"eval", "eval(userInput);\n", "security-eval-usage"},
		{"xss", "el.innerHTML = html;\n", "security-xss-sink"},
		{"secret", `const apiKey = { api_key: "sk_live_abcdef123456" };` + "\n", "hardcoded-secret"},
		{"weak hash", "const h = crypto.createHash('md5');\n", "security-weak-hash"},
		{"cors", "res.setHeader('Access-Control-Allow-Origin', '*');\n", "security-cors-wildcard"},
		{"sql concat", "db.query(\"SELECT * FROM users WHERE id = \" + id);\n", "security-sql-concat-query"},
		{"pollution", "Object.assign(target, req.body);\n", "security-prototype-pollution"},
		{"ssrf", "await fetch(req.query.url);\n", "security-ssrf-request-url"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := withID(run(t, c.content, "server.js", Options{}), c.id); len(got) == 0 {
				t.Errorf("%s not detected in %q", c.id, c.content)
			}
		})
	}
}

func TestSensitiveLoggingIsCritical(t *testing.T) {
	got := withID(run(t, "console.log('auth', password);\n", "server.js", Options{}), "security-sensitive-logging")
	if len(got) != 1 {
		t.Fatalf("got %d security-sensitive-logging signals, want 1", len(got))
	}
	if got[0].Class != signal.ClassCritical {
		t.Errorf("class = %s, want critical", got[0].Class)
	}
	if got[0].Severity != signal.SeverityBlocker {
		t.Errorf("severity = %s, want blocker", got[0].Severity)
	}
	if len(got[0].Actions) == 0 {
		t.Error("blocker without actions")
	}
}

func TestShellExecEscalation(t *testing.T) {
	plain := run(t, "execSync('ls -la');\n", "a.js", Options{})
	tainted := run(t, "execSync(`ls ${dir}`);\n", "a.js", Options{})

	p := withID(plain, "security-shell-exec")
	ta := withID(tainted, "security-shell-exec")
	if len(p) != 1 || len(ta) != 1 {
		t.Fatalf("shell exec signals: plain=%d tainted=%d", len(p), len(ta))
	}
	if !(ta[0].Weight > p[0].Weight) {
		t.Errorf("tainted weight %v not above plain %v", ta[0].Weight, p[0].Weight)
	}
	if ta[0].Severity != signal.SeverityBlocker {
		t.Errorf("tainted shell exec severity = %s, want blocker", ta[0].Severity)
	}
}

func TestUnsafeJSONParse(t *testing.T) {
	bare := "const v = JSON.parse(raw);\n"
	if got := withID(run(t, bare, "a.js", Options{}), "unsafe-json-parse"); len(got) != 1 {
		t.Errorf("bare JSON.parse: got %d signals, want 1", len(got))
	}
	guarded := "try {\n  const v = JSON.parse(raw);\n} catch (e) { report(e); }\n"
	if got := withID(run(t, guarded, "a.js", Options{}), "unsafe-json-parse"); len(got) != 0 {
		t.Error("guarded JSON.parse flagged")
	}
}

func TestManifestLifecycle(t *testing.T) {
	manifest := "{\n  \"scripts\": {\n    \"postinstall\": \"node setup.js\"\n  }\n}\n"
	if got := withID(run(t, manifest, "pkg/package.json", Options{}), "security-lifecycle-script"); len(got) != 1 {
		t.Errorf("postinstall: got %d signals, want 1", len(got))
	}
	if got := withID(run(t, manifest, "pkg/other.json", Options{}), "security-lifecycle-script"); len(got) != 0 {
		t.Error("lifecycle probe fired outside package.json")
	}
}

func TestCorrectnessProbes(t *testing.T) {
	interval := "setInterval(poll, 250);\n"
	if got := withID(run(t, interval, "a.js", Options{}), "timer-interval-no-clear"); len(got) != 1 {
		t.Errorf("setInterval without clear: %d signals, want 1", len(got))
	}
	cleared := "const h = setInterval(poll, 250);\nclearInterval(h);\n"
	if got := withID(run(t, cleared, "a.js", Options{}), "timer-interval-no-clear"); len(got) != 0 {
		t.Error("cleared interval flagged")
	}

	loop := "while (true) {\n  spin();\n}\n"
	if got := withID(run(t, loop, "a.js", Options{}), "unconditional-loop"); len(got) != 1 {
		t.Errorf("exitless loop: %d signals, want 1", len(got))
	}
	loopBreak := "while (true) {\n  if (done) break;\n}\n"
	if got := withID(run(t, loopBreak, "a.js", Options{}), "unconditional-loop"); len(got) != 0 {
		t.Error("loop with break flagged")
	}

	emptyCatch := "try {\n  work();\n} catch (e) {}\n"
	if got := withID(run(t, emptyCatch, "a.js", Options{}), "empty-catch-block"); len(got) != 1 {
		t.Errorf("empty catch: %d signals, want 1", len(got))
	}

	anyTS := "function f(x: any) {}\n"
	if got := withID(run(t, anyTS, "a.ts", Options{}), "any-type-usage"); len(got) != 1 {
		t.Errorf("any in .ts: %d signals, want 1", len(got))
	}
	if got := withID(run(t, anyTS, "a.js", Options{}), "any-type-usage"); len(got) != 0 {
		t.Error("any probe fired on a .js file")
	}
}

func TestMaintainabilityProbes(t *testing.T) {
	todo := "// TODO clean this up later\n"
	if got := withID(run(t, todo, "a.js", Options{}), "untracked-todo"); len(got) != 1 {
		t.Errorf("untracked todo: %d signals, want 1", len(got))
	}
	ticketed := "// TODO(PROJ-123): clean this up\n"
	if got := withID(run(t, ticketed, "a.js", Options{}), "untracked-todo"); len(got) != 0 {
		t.Error("ticketed TODO flagged")
	}

	magic := "const limit = 86401;\n"
	if got := withID(run(t, magic, "a.js", Options{}), "magic-number"); len(got) != 1 {
		t.Errorf("magic number: %d signals, want 1", len(got))
	}
	allowed := "res.status(404);\n"
	if got := withID(run(t, allowed, "a.js", Options{}), "magic-number"); len(got) != 0 {
		t.Error("allow-listed number flagged")
	}

	commented := strings.Repeat("// const old = compute();\n", 5)
	got := withID(run(t, commented, "a.js", Options{}), "commented-out-code")
	if len(got) != 1 {
		t.Errorf("commented run: %d signals, want 1", len(got))
	}

	dup := strings.Repeat("callTheSameHelperWithLongArguments(a, b, c);\n", 3)
	if got := withID(run(t, dup, "a.js", Options{}), "duplicated-line-cluster"); len(got) != 1 {
		t.Errorf("duplicate cluster: %d signals, want 1", len(got))
	}

	skip := "it.skip('does the thing', () => {});\n"
	if got := withID(run(t, skip, "a.test.js", Options{}), "disabled-test"); len(got) != 1 {
		t.Errorf("disabled test: %d signals, want 1", len(got))
	}
	if got := withID(run(t, skip, "a.js", Options{}), "disabled-test"); len(got) != 0 {
		t.Error("disabled-test probe fired outside a test file")
	}
}

func TestAsyncAndSignatureAggregates(t *testing.T) {
	content := "export async function load() {}\nasync function save() {}\n"
	signals := run(t, content, "a.ts", Options{})

	agg := withID(signals, "async-function-changes")
	if len(agg) != 1 || len(agg[0].Lines) != 2 {
		t.Fatalf("async aggregate: %v", agg)
	}
	if got := withID(signals, "exported-declaration"); len(got) != 1 {
		t.Errorf("exported-declaration: %d, want 1", len(got))
	}

	types := "export type A = string;\nexport interface B {}\n"
	ts := withID(run(t, types, "a.ts", Options{}), "type-surface-change")
	if len(ts) != 1 || len(ts[0].Lines) != 2 {
		t.Fatalf("type aggregate: %v", ts)
	}
	if got := withID(run(t, types, "a.js", Options{}), "type-surface-change"); len(got) != 0 {
		t.Error("type aggregate fired on a .js file")
	}
}

func TestDetectionIsDeterministic(t *testing.T) {
	content := "window.x = 1;\neval(y);\nfetch('/api');\n"
	a := run(t, content, "a.ts", Options{})
	b := run(t, content, "a.ts", Options{})
	if len(a) != len(b) {
		t.Fatalf("signal counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Severity != b[i].Severity {
			t.Fatalf("emission order or content differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestLongFunctionChange(t *testing.T) {
	var b strings.Builder
	b.WriteString("function big() {\n")
	for i := 0; i < 60; i++ {
		b.WriteString("  step();\n")
	}
	b.WriteString("}\n")

	opts := Options{ChangedRanges: []signal.ChangedRange{{StartLine: 30, EndLine: 30}}}
	if got := withID(run(t, b.String(), "a.js", opts), "long-function-change"); len(got) != 1 {
		t.Errorf("long function with changed line: %d signals, want 1", len(got))
	}

	outside := Options{ChangedRanges: []signal.ChangedRange{{StartLine: 63, EndLine: 63}}}
	if got := withID(run(t, b.String()+"const tail = 1;\n", "a.js", outside), "long-function-change"); len(got) != 0 {
		t.Error("long function with no changed line flagged")
	}
}
