// Package detect implements the diff-aware signal detection battery.
//
// Detection is purely functional per file: the same (content, path, ranges,
// options) input always produces the same signals. A File value is scoped to
// exactly one analysis call and holds only derived line sets; nothing is
// shared across calls, so callers may analyze many files concurrently.
package detect

import (
	"strings"

	"github.com/sprite-ai/sigscan/internal/classify"
	"github.com/sprite-ai/sigscan/internal/focus"
	"github.com/sprite-ai/sigscan/internal/signal"
)

// Options configures a detection call.
type Options struct {
	ChangedRanges []signal.ChangedRange
	ContextLines  int // 0 selects focus.DefaultContextLines
}

// Detector maps one file to signals. Implementations hold no per-file state.
type Detector interface {
	Name() string
	Detect(content, path string, opts Options) []signal.Signal
}

// Probe is a file-scope check run over focus lines.
type Probe func(f *File) []signal.Signal

// File is the per-call analysis context.
type File struct {
	Path    string
	Content string
	Lines   []string
	Focus   *focus.Set
}

// NewFile splits content into lines and derives the focus sets.
func NewFile(content, path string, opts Options) *File {
	lines := strings.Split(content, "\n")
	return &File{
		Path:    path,
		Content: content,
		Lines:   lines,
		Focus:   focus.New(len(lines), opts.ChangedRanges, opts.ContextLines),
	}
}

// Line returns the 1-indexed line n, or "" when out of range.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.Lines) {
		return ""
	}
	return f.Lines[n-1]
}

// Draft is a raw match before classification fills in the derived fields.
type Draft struct {
	ID         string
	Title      string
	Category   string
	Reason     string
	Weight     float64
	Lines      []int
	Snippet    string
	Confidence signal.Confidence
	Evidence   signal.Evidence
	Tags       []string
	Actions    []signal.ActionRecommendation
	Meta       map[string]string
}

// Emit turns a draft into a Signal: class from the id, severity from
// (class, weight), defaults for confidence and evidence kind, and the
// in-changed-range bit from the focus set.
func (f *File) Emit(d Draft) signal.Signal {
	if d.Confidence == "" {
		d.Confidence = signal.ConfidenceMedium
	}
	if d.Evidence.Kind == "" {
		d.Evidence.Kind = signal.EvidenceRegex
	}
	if d.Snippet == "" && len(d.Lines) > 0 {
		d.Snippet = strings.TrimSpace(f.Line(d.Lines[0]))
	}

	class := classify.ClassForID(d.ID)
	// File-level signals (no lines) count as in-range whenever anything
	// changed; line signals check their own lines.
	inChanged := len(d.Lines) == 0 && f.Focus.ChangedCount() > 0
	for _, n := range d.Lines {
		if f.Focus.IsChanged(n) {
			inChanged = true
			break
		}
	}

	return signal.Signal{
		ID:             d.ID,
		Title:          d.Title,
		Class:          class,
		Category:       d.Category,
		Severity:       classify.SeverityFor(class, d.Weight),
		Confidence:     d.Confidence,
		Weight:         d.Weight,
		FilePath:       f.Path,
		Lines:          d.Lines,
		Snippet:        d.Snippet,
		Reason:         d.Reason,
		Evidence:       d.Evidence,
		Actions:        d.Actions,
		Tags:           d.Tags,
		InChangedRange: inChanged,
		Meta:           d.Meta,
	}
}

// Generic runs the base category battery over focus lines.
type Generic struct{}

// NewGeneric returns the generic detector.
func NewGeneric() *Generic {
	return &Generic{}
}

// Name implements Detector.
func (g *Generic) Name() string { return "generic" }

// genericProbes is the ordered battery. Order affects only emission order,
// never which signals fire.
var genericProbes = []Probe{
	complexityProbe,
	func(f *File) []signal.Signal { return ScanRules(f, genericRules) },
	asyncAggregateProbe,
	typeExportProbe,
	shellExecProbe,
	sqlConcatProbe,
	prototypePollutionProbe,
	ssrfProbe,
	unsafeJSONParseProbe,
	manifestLifecycleProbe,
	correctnessProbe,
	maintainabilityProbe,
}

// Detect implements Detector.
func (g *Generic) Detect(content, path string, opts Options) []signal.Signal {
	f := NewFile(content, path, opts)
	return RunProbes(f, genericProbes)
}

// RunProbes applies probes in order and concatenates their signals.
func RunProbes(f *File, probes []Probe) []signal.Signal {
	var out []signal.Signal
	for _, p := range probes {
		out = append(out, p(f)...)
	}
	return out
}

// eachFocusLine calls fn for every focus line with its 1-indexed number.
func (f *File) eachFocusLine(fn func(n int, text string)) {
	for _, n := range f.Focus.FocusLines() {
		fn(n, f.Lines[n-1])
	}
}

// isTypeScript reports whether the file carries TypeScript types.
func (f *File) isTypeScript() bool {
	return strings.HasSuffix(f.Path, ".ts") || strings.HasSuffix(f.Path, ".tsx")
}

// isTestFile reports whether the path follows test-file conventions.
func (f *File) isTestFile() bool {
	base := f.Path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.") ||
		strings.Contains(f.Path, "__tests__/")
}
