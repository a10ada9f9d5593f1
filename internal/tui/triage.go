package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// State is a reviewer's decision about one signal.
type State int

const (
	StatePending State = iota
	StateAcknowledged
	StateDismissed
)

// Triage accumulates per-signal decisions over a browsing session. A
// signal is keyed by (path, id, first line) so re-running analysis keeps
// decisions stable.
type Triage struct {
	states map[string]State
}

// NewTriage returns an empty decision set.
func NewTriage() *Triage {
	return &Triage{states: make(map[string]State)}
}

func triageKey(path string, s signal.Signal) string {
	line := 0
	if len(s.Lines) > 0 {
		line = s.Lines[0]
	}
	return fmt.Sprintf("%s:%s:%d", path, s.ID, line)
}

// Acknowledge marks a signal as a real issue. Acknowledging a second time
// reverts to pending.
func (t *Triage) Acknowledge(path string, s signal.Signal) {
	t.toggle(path, s, StateAcknowledged)
}

// Dismiss marks a signal as noise. Dismissing a second time reverts to
// pending.
func (t *Triage) Dismiss(path string, s signal.Signal) {
	t.toggle(path, s, StateDismissed)
}

func (t *Triage) toggle(path string, s signal.Signal, state State) {
	key := triageKey(path, s)
	if t.states[key] == state {
		delete(t.states, key)
		return
	}
	t.states[key] = state
}

// State returns the decision for a signal.
func (t *Triage) State(path string, s signal.Signal) State {
	return t.states[triageKey(path, s)]
}

// Counts returns how many signals were acknowledged and dismissed.
func (t *Triage) Counts() (acknowledged, dismissed int) {
	for _, st := range t.states {
		switch st {
		case StateAcknowledged:
			acknowledged++
		case StateDismissed:
			dismissed++
		}
	}
	return
}

// Summary renders the session's decisions as a review note. Files with no
// decided signals are left out.
func (t *Triage) Summary(files []signal.FileSignals) string {
	acknowledged, dismissed := t.Counts()
	if acknowledged == 0 && dismissed == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Review: %d acknowledged, %d dismissed\n", acknowledged, dismissed))

	for _, f := range sortedByPath(files) {
		var lines []string
		for _, s := range f.Signals {
			switch t.State(f.Path, s) {
			case StateAcknowledged:
				lines = append(lines, fmt.Sprintf("  [ack] %s (%s)", s.Title, s.ID))
			case StateDismissed:
				lines = append(lines, fmt.Sprintf("  [dis] %s (%s)", s.Title, s.ID))
			}
		}
		if len(lines) == 0 {
			continue
		}
		b.WriteString(f.Path + "\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteByte('\n')
	}
	return b.String()
}

func sortedByPath(files []signal.FileSignals) []signal.FileSignals {
	out := make([]signal.FileSignals, len(files))
	copy(out, files)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
