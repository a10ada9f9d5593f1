package focus

import (
	"testing"

	"github.com/sprite-ai/sigscan/internal/signal"
)

func TestWholeFileModeWhenNoRanges(t *testing.T) {
	s := New(10, nil, 5)

	if s.ChangedCount() != 10 || s.FocusCount() != 10 {
		t.Fatalf("changed=%d focus=%d, want 10/10", s.ChangedCount(), s.FocusCount())
	}
	for n := 1; n <= 10; n++ {
		if !s.IsChanged(n) || !s.ShouldAnalyze(n) {
			t.Errorf("line %d should be changed and analyzable", n)
		}
	}
	if s.IsChanged(11) || s.ShouldAnalyze(0) {
		t.Error("out-of-range lines must not be members")
	}
}

func TestContextWindowClipping(t *testing.T) {
	ranges := []signal.ChangedRange{
		{StartLine: 3, EndLine: 4, Type: signal.RangeModified, LineCount: 2},
	}
	s := New(6, ranges, 5)

	// Window [3-5, 4+5] clips to [1, 6].
	for n := 1; n <= 6; n++ {
		if !s.ShouldAnalyze(n) {
			t.Errorf("line %d should be in focus", n)
		}
	}
	// Only [3,4] are changed; context padding never enters the changed set.
	for n := 1; n <= 6; n++ {
		want := n == 3 || n == 4
		if s.IsChanged(n) != want {
			t.Errorf("IsChanged(%d) = %v, want %v", n, s.IsChanged(n), want)
		}
	}
}

func TestChangedIsSubsetOfFocus(t *testing.T) {
	ranges := []signal.ChangedRange{
		{StartLine: 10, EndLine: 12},
		{StartLine: 40, EndLine: 40},
	}
	s := New(100, ranges, 3)

	for n := 1; n <= 100; n++ {
		if s.IsChanged(n) && !s.ShouldAnalyze(n) {
			t.Errorf("changed line %d missing from focus set", n)
		}
	}
	if s.ShouldAnalyze(20) {
		t.Error("line 20 is outside every window")
	}
	if !s.ShouldAnalyze(7) || !s.ShouldAnalyze(15) || !s.ShouldAnalyze(37) || !s.ShouldAnalyze(43) {
		t.Error("context padding missing from focus set")
	}
}

func TestOverlappingRangesDedupe(t *testing.T) {
	ranges := []signal.ChangedRange{
		{StartLine: 5, EndLine: 10},
		{StartLine: 8, EndLine: 12},
	}
	s := New(50, ranges, 2)

	if s.ChangedCount() != 8 { // lines 5..12
		t.Errorf("ChangedCount = %d, want 8", s.ChangedCount())
	}
}

func TestFocusLinesSorted(t *testing.T) {
	ranges := []signal.ChangedRange{{StartLine: 30, EndLine: 30}, {StartLine: 5, EndLine: 5}}
	s := New(50, ranges, 1)

	lines := s.FocusLines()
	want := []int{4, 5, 6, 29, 30, 31}
	if len(lines) != len(want) {
		t.Fatalf("FocusLines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("FocusLines = %v, want %v", lines, want)
		}
	}
}

func TestDefaultContextLines(t *testing.T) {
	s := New(100, []signal.ChangedRange{{StartLine: 50, EndLine: 50}}, 0)
	if !s.ShouldAnalyze(45) || !s.ShouldAnalyze(55) {
		t.Error("default context of 5 not applied")
	}
	if s.ShouldAnalyze(44) || s.ShouldAnalyze(56) {
		t.Error("default context window too wide")
	}
}
