// Package signal defines the core data types shared across sigscan.
package signal

// Class is the coarse risk category of a signal.
type Class string

const (
	ClassCritical        Class = "critical"
	ClassBehavioral      Class = "behavioral"
	ClassMaintainability Class = "maintainability"
)

// Severity is the actionability tier derived from class and weight.
type Severity string

const (
	SeverityBlocker Severity = "blocker"
	SeverityWarn    Severity = "warn"
	SeverityInfo    Severity = "info"
)

// Rank orders severities for comparisons and exit-code policy.
func (s Severity) Rank() int {
	switch s {
	case SeverityBlocker:
		return 2
	case SeverityWarn:
		return 1
	default:
		return 0
	}
}

// Confidence expresses how much a heuristic match should be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// EvidenceKind describes how a signal was derived.
type EvidenceKind string

const (
	EvidenceRegex     EvidenceKind = "regex"
	EvidenceAST       EvidenceKind = "ast"
	EvidenceHistory   EvidenceKind = "history"
	EvidenceGraph     EvidenceKind = "graph"
	EvidenceHeuristic EvidenceKind = "heuristic"
)

// Evidence is the explainability record attached to a signal. It is never
// used for further computation.
type Evidence struct {
	Kind    EvidenceKind `json:"kind"`
	Pattern string       `json:"pattern,omitempty"`
	Details string       `json:"details,omitempty"`
}

// ActionRecommendation is optional remediation guidance attached to a signal.
type ActionRecommendation struct {
	Type      string   `json:"type"`
	Text      string   `json:"text"`
	Steps     []string `json:"steps,omitempty"`
	Reviewers []string `json:"reviewers,omitempty"`
	Command   string   `json:"command,omitempty"`
	URL       string   `json:"url,omitempty"`
}

// Signal is a single classified observation about a line or file. It is
// flat and JSON-serializable; instances are created per detection call and
// never persisted by the engine.
type Signal struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Class          Class                  `json:"class"`
	Category       string                 `json:"category"`
	Severity       Severity               `json:"severity"`
	Confidence     Confidence             `json:"confidence"`
	Weight         float64                `json:"weight"`
	FilePath       string                 `json:"file_path"`
	Lines          []int                  `json:"lines"`
	Snippet        string                 `json:"snippet,omitempty"`
	Reason         string                 `json:"reason"`
	Evidence       Evidence               `json:"evidence"`
	Actions        []ActionRecommendation `json:"actions,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	InChangedRange bool                   `json:"in_changed_range"`
	Meta           map[string]string      `json:"meta,omitempty"`
}

// RangeType classifies a changed range.
type RangeType string

const (
	RangeAdded    RangeType = "added"
	RangeModified RangeType = "modified"
	RangeDeleted  RangeType = "deleted"
)

// ChangedRange is an externally supplied contiguous span of changed lines.
// Lines are 1-indexed and inclusive on both ends.
type ChangedRange struct {
	StartLine int       `json:"start_line"`
	EndLine   int       `json:"end_line"`
	Type      RangeType `json:"type"`
	LineCount int       `json:"line_count"`
}

// SignalSummary is a derived rollup over a signal slice.
type SignalSummary struct {
	Total              int            `json:"total"`
	ByCategory         map[string]int `json:"by_category"`
	ByClass            map[Class]int  `json:"by_class"`
	ChangedLineSignals int            `json:"changed_line_signals"`
}

// FileSignals pairs a file path with its signals and summary.
type FileSignals struct {
	Path    string        `json:"path"`
	Signals []Signal      `json:"signals"`
	Summary SignalSummary `json:"summary"`
}

// Summarize counts signals into a SignalSummary.
func Summarize(signals []Signal) SignalSummary {
	s := SignalSummary{
		Total:      len(signals),
		ByCategory: make(map[string]int),
		ByClass:    make(map[Class]int),
	}
	for _, sig := range signals {
		s.ByCategory[sig.Category]++
		s.ByClass[sig.Class]++
		if sig.InChangedRange {
			s.ChangedLineSignals++
		}
	}
	return s
}

// MaxSeverity returns the highest severity among signals, or SeverityInfo
// when the slice is empty.
func MaxSeverity(signals []Signal) Severity {
	max := SeverityInfo
	for _, sig := range signals {
		if sig.Severity.Rank() > max.Rank() {
			max = sig.Severity
		}
	}
	return max
}
