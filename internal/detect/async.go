package detect

import (
	"fmt"
	"regexp"

	"github.com/sprite-ai/sigscan/internal/signal"
)

var asyncDecl = regexp.MustCompile(`\basync\s+(function\b|\w+\s*\(|\()|\basync\s*\([^)]*\)\s*=>`)

// asyncAggregateProbe emits one signal counting async function declarations
// across the focus lines; weight scales with the count.
func asyncAggregateProbe(f *File) []signal.Signal {
	var lines []int
	f.eachFocusLine(func(n int, text string) {
		if asyncDecl.MatchString(text) {
			lines = append(lines, n)
		}
	})
	if len(lines) == 0 {
		return nil
	}

	weight := 0.3 + 0.1*float64(len(lines))
	if weight > 0.9 {
		weight = 0.9
	}

	return []signal.Signal{f.Emit(Draft{
		ID:       "async-function-changes",
		Title:    "Async functions touched",
		Category: "async",
		Reason:   fmt.Sprintf("%d async function declaration(s) in the focus window", len(lines)),
		Weight:   weight,
		Lines:    lines,
		Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: asyncDecl.String()},
		Tags:     []string{"async"},
	})}
}

var typeExport = regexp.MustCompile(`^\s*export\s+(type|interface)\b`)

// typeExportProbe emits one aggregate signal for exported type/interface
// declarations in TypeScript files, scaled by count.
func typeExportProbe(f *File) []signal.Signal {
	if !f.isTypeScript() {
		return nil
	}

	var lines []int
	f.eachFocusLine(func(n int, text string) {
		if typeExport.MatchString(text) {
			lines = append(lines, n)
		}
	})
	if len(lines) == 0 {
		return nil
	}

	weight := 0.2 + 0.1*float64(len(lines))
	if weight > 0.8 {
		weight = 0.8
	}

	return []signal.Signal{f.Emit(Draft{
		ID:       "type-surface-change",
		Title:    "Exported type surface changed",
		Category: "signature",
		Reason:   fmt.Sprintf("%d exported type/interface declaration(s) touched", len(lines)),
		Weight:   weight,
		Lines:    lines,
		Evidence: signal.Evidence{Kind: signal.EvidenceRegex, Pattern: typeExport.String()},
		Tags:     []string{"api-surface", "types"},
	})}
}
