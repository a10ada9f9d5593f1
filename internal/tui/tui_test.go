package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/sigscan/internal/signal"
)

func testFiles() []signal.FileSignals {
	authSignals := []signal.Signal{
		{
			ID:       "hardcoded-secret",
			Title:    "Hardcoded secret",
			Class:    signal.ClassCritical,
			Category: "security",
			Severity: signal.SeverityBlocker,
			Lines:    []int{3},
			Snippet:  `const key = "sk-123";`,
		},
		{
			ID:       "network-call",
			Title:    "Network call",
			Class:    signal.ClassBehavioral,
			Category: "side-effects",
			Severity: signal.SeverityInfo,
			Lines:    []int{9},
		},
		{
			ID:       "security-eval-usage",
			Title:    "eval usage",
			Class:    signal.ClassCritical,
			Category: "security",
			Severity: signal.SeverityBlocker,
			Lines:    []int{14},
		},
	}
	utilSignals := []signal.Signal{
		{
			ID:       "untracked-todo",
			Title:    "Untracked TODO",
			Class:    signal.ClassMaintainability,
			Category: "maintainability",
			Severity: signal.SeverityInfo,
			Lines:    []int{1},
		},
	}
	return []signal.FileSignals{
		{Path: "src/auth.ts", Signals: authSignals, Summary: signal.Summarize(authSignals)},
		{Path: "src/util.ts", Signals: utilSignals, Summary: signal.Summarize(utilSignals)},
	}
}

func setupModel(t *testing.T) Model {
	t.Helper()
	m := New(testFiles())
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return newM.(Model)
}

func press(t *testing.T, m Model, r rune) Model {
	t.Helper()
	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return newM.(Model)
}

func TestModelInit(t *testing.T) {
	m := setupModel(t)

	if m.fileIndex != 0 {
		t.Errorf("expected fileIndex 0, got %d", m.fileIndex)
	}
	if m.sigIndex != 0 {
		t.Errorf("expected sigIndex 0, got %d", m.sigIndex)
	}
	if len(m.files) != 2 {
		t.Errorf("expected 2 files, got %d", len(m.files))
	}
}

func TestFileNavigation(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, 'n')
	if m.fileIndex != 1 {
		t.Errorf("expected fileIndex 1 after next, got %d", m.fileIndex)
	}

	// Past the end stays put.
	m = press(t, m, 'n')
	if m.fileIndex != 1 {
		t.Errorf("expected fileIndex 1 at end, got %d", m.fileIndex)
	}

	m = press(t, m, 'N')
	if m.fileIndex != 0 {
		t.Errorf("expected fileIndex 0 after prev, got %d", m.fileIndex)
	}
}

func TestSignalNavigation(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, 'j')
	if m.sigIndex != 1 {
		t.Errorf("expected sigIndex 1, got %d", m.sigIndex)
	}

	m = press(t, m, 'k')
	if m.sigIndex != 0 {
		t.Errorf("expected sigIndex 0, got %d", m.sigIndex)
	}

	// Above the top stays put.
	m = press(t, m, 'k')
	if m.sigIndex != 0 {
		t.Errorf("expected sigIndex 0 at top, got %d", m.sigIndex)
	}
}

func TestSignalSelectionResetsOnFileChange(t *testing.T) {
	m := setupModel(t)
	m = press(t, m, 'j')
	m = press(t, m, 'n')
	if m.sigIndex != 0 {
		t.Errorf("expected sigIndex reset on file change, got %d", m.sigIndex)
	}
}

func TestBlockerJump(t *testing.T) {
	m := setupModel(t)

	// From the first blocker, ] lands on the second one at index 2.
	m = press(t, m, ']')
	if m.sigIndex != 2 {
		t.Errorf("expected sigIndex 2 after blocker jump, got %d", m.sigIndex)
	}

	m = press(t, m, '[')
	if m.sigIndex != 0 {
		t.Errorf("expected sigIndex 0 after reverse jump, got %d", m.sigIndex)
	}
}

func TestTriageToggles(t *testing.T) {
	m := setupModel(t)
	files := testFiles()

	m = press(t, m, 'a')
	if m.triage.State("src/auth.ts", files[0].Signals[0]) != StateAcknowledged {
		t.Error("expected first signal acknowledged")
	}

	// Acknowledging again reverts to pending.
	m = press(t, m, 'a')
	if m.triage.State("src/auth.ts", files[0].Signals[0]) != StatePending {
		t.Error("expected second press to revert to pending")
	}

	m = press(t, m, 'x')
	if m.triage.State("src/auth.ts", files[0].Signals[0]) != StateDismissed {
		t.Error("expected signal dismissed")
	}

	ack, dis := m.triage.Counts()
	if ack != 0 || dis != 1 {
		t.Errorf("counts = %d/%d, want 0/1", ack, dis)
	}
}

func TestTriageSummary(t *testing.T) {
	files := testFiles()
	tr := NewTriage()
	tr.Acknowledge("src/auth.ts", files[0].Signals[0])
	tr.Dismiss("src/util.ts", files[1].Signals[0])

	out := tr.Summary(files)
	for _, want := range []string{
		"1 acknowledged, 1 dismissed",
		"[ack] Hardcoded secret (hardcoded-secret)",
		"[dis] Untracked TODO (untracked-todo)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}

	if NewTriage().Summary(files) != "" {
		t.Error("empty triage must produce an empty summary")
	}
}

func TestViewRenders(t *testing.T) {
	m := setupModel(t)

	view := m.View()
	if view == "" {
		t.Error("expected non-empty view")
	}
	if !strings.Contains(view, "auth.ts") {
		t.Error("expected view to contain the selected file")
	}
	if !strings.Contains(view, "Hardcoded secret") {
		t.Error("expected view to contain the signal title")
	}
}

func TestHelpToggle(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, '?')
	if !m.showHelp {
		t.Error("expected help to be shown")
	}

	view := m.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("expected help view to contain shortcuts")
	}
}

func TestEmptyFiles(t *testing.T) {
	m := New(nil)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = newM.(Model)

	if view := m.View(); !strings.Contains(view, "No signals") {
		t.Errorf("empty view = %q", view)
	}
	// Navigation on empty input must not panic.
	m = press(t, m, 'j')
	m = press(t, m, 'n')
	m = press(t, m, 'a')
}
