package signal

import "testing"

func TestSummarize(t *testing.T) {
	signals := []Signal{
		{ID: "a", Category: "security", Class: ClassCritical, InChangedRange: true},
		{ID: "b", Category: "security", Class: ClassCritical},
		{ID: "c", Category: "side-effects", Class: ClassBehavioral, InChangedRange: true},
	}

	s := Summarize(signals)

	if s.Total != 3 {
		t.Errorf("total = %d, want 3", s.Total)
	}
	if s.ByCategory["security"] != 2 {
		t.Errorf("by_category[security] = %d, want 2", s.ByCategory["security"])
	}
	if s.ByClass[ClassBehavioral] != 1 {
		t.Errorf("by_class[behavioral] = %d, want 1", s.ByClass[ClassBehavioral])
	}
	if s.ChangedLineSignals != 2 {
		t.Errorf("changed_line_signals = %d, want 2", s.ChangedLineSignals)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.ChangedLineSignals != 0 {
		t.Errorf("empty summary not zero: %+v", s)
	}
}

func TestMaxSeverity(t *testing.T) {
	if got := MaxSeverity(nil); got != SeverityInfo {
		t.Errorf("MaxSeverity(nil) = %s, want info", got)
	}

	signals := []Signal{
		{Severity: SeverityInfo},
		{Severity: SeverityWarn},
		{Severity: SeverityBlocker},
	}
	if got := MaxSeverity(signals); got != SeverityBlocker {
		t.Errorf("MaxSeverity = %s, want blocker", got)
	}
}

func TestSeverityRankOrder(t *testing.T) {
	if !(SeverityBlocker.Rank() > SeverityWarn.Rank() && SeverityWarn.Rank() > SeverityInfo.Rank()) {
		t.Error("severity ranks out of order")
	}
}
