// Package classify maps signal ids to classes and derives severities.
//
// Classification is keyword-driven: an id is lower-cased and checked against
// the critical keyword list first, then the behavioral list; first match
// wins. The order is load-bearing — an id matching both lists is critical.
package classify

import (
	"strings"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// criticalKeywords mark ids that touch security-sensitive surfaces.
var criticalKeywords = []string{
	"auth",
	"secret",
	"token",
	"credential",
	"payment",
	"security",
	"permission",
	"session",
	"password",
	"encryption",
}

// behavioralKeywords mark ids whose runtime behavior is observable.
var behavioralKeywords = []string{
	"async",
	"promise",
	"callback",
	"event",
	"network",
	"storage",
	"database",
	"timer",
	"process",
	"dom",
	"global",
	"effect",
	"watch",
	"subscribe",
	"http",
	"query",
}

// ClassForID derives the signal class from an id.
func ClassForID(id string) signal.Class {
	lower := strings.ToLower(id)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return signal.ClassCritical
		}
	}
	for _, kw := range behavioralKeywords {
		if strings.Contains(lower, kw) {
			return signal.ClassBehavioral
		}
	}
	return signal.ClassMaintainability
}

// SeverityFor derives severity from class and weight. Pure and total; the
// thresholds are part of the engine contract.
func SeverityFor(class signal.Class, weight float64) signal.Severity {
	switch class {
	case signal.ClassCritical:
		if weight >= 0.6 {
			return signal.SeverityBlocker
		}
		if weight >= 0.3 {
			return signal.SeverityWarn
		}
		return signal.SeverityInfo
	case signal.ClassBehavioral:
		if weight >= 0.7 {
			return signal.SeverityBlocker
		}
		if weight >= 0.4 {
			return signal.SeverityWarn
		}
		return signal.SeverityInfo
	case signal.ClassMaintainability:
		return signal.SeverityInfo
	default:
		return signal.SeverityInfo
	}
}

// ValidationResult reports structural validity of a signal.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate checks that a signal carries its required fields and that a
// blocker carries at least one action. It never panics; construction does
// not enforce these rules, callers invoke this pass when they care.
func Validate(s signal.Signal) ValidationResult {
	var errs []string
	if s.ID == "" {
		errs = append(errs, "missing id")
	}
	if s.Title == "" {
		errs = append(errs, "missing title")
	}
	if s.Reason == "" {
		errs = append(errs, "missing reason")
	}
	if s.FilePath == "" {
		errs = append(errs, "missing file_path")
	}
	if s.Severity == signal.SeverityBlocker && len(s.Actions) == 0 {
		errs = append(errs, "blocker severity requires at least one action")
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
