// Package focus derives changed and focus line sets from changed ranges.
//
// A changed line is one inside a reported range; a focus line is a changed
// line or one within the context window around a range. Changed lines are
// always a subset of focus lines. Lines are 1-indexed throughout.
package focus

import (
	"sort"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// DefaultContextLines is the padding applied around each changed range.
const DefaultContextLines = 5

// Set holds the changed and focus line-number sets for one file.
type Set struct {
	changed map[int]struct{}
	focus   map[int]struct{}
	total   int
}

// New builds a Set for a file with totalLines lines. When ranges is empty
// the whole file is treated as changed: both sets equal {1..totalLines}.
// Context padding is clipped to [1, totalLines] and never enters the
// changed set. contextLines <= 0 selects DefaultContextLines.
func New(totalLines int, ranges []signal.ChangedRange, contextLines int) *Set {
	if contextLines <= 0 {
		contextLines = DefaultContextLines
	}

	s := &Set{
		changed: make(map[int]struct{}),
		focus:   make(map[int]struct{}),
		total:   totalLines,
	}

	if len(ranges) == 0 {
		for n := 1; n <= totalLines; n++ {
			s.changed[n] = struct{}{}
			s.focus[n] = struct{}{}
		}
		return s
	}

	for _, r := range ranges {
		for n := r.StartLine; n <= r.EndLine; n++ {
			s.changed[n] = struct{}{}
		}
		lo := r.StartLine - contextLines
		if lo < 1 {
			lo = 1
		}
		hi := r.EndLine + contextLines
		if hi > totalLines {
			hi = totalLines
		}
		for n := lo; n <= hi; n++ {
			s.focus[n] = struct{}{}
		}
	}

	return s
}

// IsChanged reports whether line n is inside a reported changed range.
func (s *Set) IsChanged(n int) bool {
	_, ok := s.changed[n]
	return ok
}

// ShouldAnalyze reports whether line n is eligible for analysis.
func (s *Set) ShouldAnalyze(n int) bool {
	_, ok := s.focus[n]
	return ok
}

// ChangedCount returns the number of changed lines.
func (s *Set) ChangedCount() int {
	return len(s.changed)
}

// FocusCount returns the number of focus lines.
func (s *Set) FocusCount() int {
	return len(s.focus)
}

// TotalLines returns the file line count the set was built for.
func (s *Set) TotalLines() int {
	return s.total
}

// FocusLines returns the focus line numbers in ascending order.
func (s *Set) FocusLines() []int {
	out := make([]int, 0, len(s.focus))
	for n := range s.focus {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
