package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sprite-ai/sigscan/internal/signal"
)

func sampleFiles() []signal.FileSignals {
	signals := []signal.Signal{
		{
			ID:             "hardcoded-secret",
			Title:          "Hardcoded secret",
			Class:          signal.ClassCritical,
			Category:       "security",
			Severity:       signal.SeverityBlocker,
			Confidence:     signal.ConfidenceMedium,
			Weight:         0.8,
			FilePath:       "auth.ts",
			Lines:          []int{12},
			Snippet:        `const key = "sk-123";`,
			Reason:         "secret literal in source",
			InChangedRange: true,
		},
		{
			ID:         "network-call",
			Title:      "Network call",
			Class:      signal.ClassBehavioral,
			Category:   "side-effects",
			Severity:   signal.SeverityInfo,
			Confidence: signal.ConfidenceMedium,
			Weight:     0.3,
			FilePath:   "auth.ts",
			Lines:      []int{30},
		},
	}
	return []signal.FileSignals{{
		Path:    "auth.ts",
		Signals: signals,
		Summary: signal.Summarize(signals),
	}}
}

func TestTextReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleFiles(), Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"1 file(s) analyzed, 2 signal(s), 1 on changed lines",
		"1 critical, 1 behavioral",
		"auth.ts:12",
		"Hardcoded secret",
		"secret literal in source",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q\n%s", want, out)
		}
	}
}

func TestTextReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, nil, Options{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No signals.") {
		t.Errorf("empty report = %q", buf.String())
	}
}

func TestJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleFiles()); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		MaxSeverity string `json:"max_severity"`
		Summary     struct {
			Total              int `json:"total"`
			ChangedLineSignals int `json:"changed_line_signals"`
		} `json:"summary"`
		Files []struct {
			Path string `json:"path"`
		} `json:"files"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.MaxSeverity != "blocker" {
		t.Errorf("max_severity = %q, want blocker", doc.MaxSeverity)
	}
	if doc.Summary.Total != 2 || doc.Summary.ChangedLineSignals != 1 {
		t.Errorf("summary = %+v", doc.Summary)
	}
	if len(doc.Files) != 1 || doc.Files[0].Path != "auth.ts" {
		t.Errorf("files = %+v", doc.Files)
	}
}

func TestMarkdownReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown(&buf, sampleFiles()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "| Severity | Category | Location | Signal |") {
		t.Error("missing table header")
	}
	if !strings.Contains(out, "| blocker | security | `auth.ts:12` | Hardcoded secret |") {
		t.Errorf("missing blocker row\n%s", out)
	}
	if !strings.Contains(out, "max severity **blocker**") {
		t.Error("missing severity rollup")
	}
}

func TestMaxSeverityRollup(t *testing.T) {
	if got := MaxSeverity(nil); got != signal.SeverityInfo {
		t.Errorf("empty rollup = %q, want info", got)
	}
	if got := MaxSeverity(sampleFiles()); got != signal.SeverityBlocker {
		t.Errorf("rollup = %q, want blocker", got)
	}
}

func TestRenderSnippetPlain(t *testing.T) {
	// Without color the snippet must come back untouched.
	snippet := `const key = "sk-123";`
	if got := renderSnippet("auth.ts", snippet, false); got != snippet {
		t.Errorf("plain snippet = %q", got)
	}
}

func TestRenderSnippetUnknownFile(t *testing.T) {
	snippet := "whatever text"
	if got := renderSnippet("data.zzz-unknown", snippet, true); got != snippet {
		t.Errorf("unknown lexer snippet = %q", got)
	}
}
