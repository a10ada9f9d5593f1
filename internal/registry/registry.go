// Package registry implements the data-driven rule-table engine. Rules are
// supplied externally (YAML or in code), compiled once, and scanned in table
// order over every focus line.
package registry

import (
	"fmt"
	"regexp"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

// Rule is one externally supplied table entry. Enabled is a pointer so an
// omitted field means enabled.
type Rule struct {
	ID         string   `yaml:"id" json:"id"`
	Title      string   `yaml:"title" json:"title"`
	Pattern    string   `yaml:"pattern" json:"pattern"`
	Category   string   `yaml:"category" json:"category"`
	Weight     float64  `yaml:"weight" json:"weight"`
	Confidence string   `yaml:"confidence,omitempty" json:"confidence,omitempty"`
	Tags       []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Framework  string   `yaml:"framework,omitempty" json:"framework,omitempty"`
	Reason     string   `yaml:"reason,omitempty" json:"reason,omitempty"`
	Enabled    *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// On reports whether the rule participates in scans.
func (r Rule) On() bool { return r.Enabled == nil || *r.Enabled }

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Registry is an ordered, compiled rule table.
type Registry struct {
	rules []compiledRule
}

// Compile builds a registry from rules, preserving table order. A rule with
// a missing id, a missing pattern, or a pattern that does not compile fails
// the whole load.
func Compile(rules []Rule) (*Registry, error) {
	reg := &Registry{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: missing id", i)
		}
		if r.Pattern == "" {
			return nil, fmt.Errorf("rule %q: missing pattern", r.ID)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.ID, err)
		}
		reg.rules = append(reg.rules, compiledRule{Rule: r, re: re})
	}
	return reg, nil
}

// Len returns the number of rules in the table, disabled ones included.
func (reg *Registry) Len() int { return len(reg.rules) }

// Rules returns the table entries in order.
func (reg *Registry) Rules() []Rule {
	out := make([]Rule, len(reg.rules))
	for i, r := range reg.rules {
		out[i] = r.Rule
	}
	return out
}

// Detector scans files against one registry, optionally filtered to a
// single framework tag. The zero framework matches every rule.
type Detector struct {
	reg       *Registry
	framework string
}

// NewDetector wraps a registry. Rules carrying a framework tag different
// from the filter are skipped; untagged rules always run.
func NewDetector(reg *Registry, framework string) *Detector {
	return &Detector{reg: reg, framework: framework}
}

// Name implements detect.Detector.
func (d *Detector) Name() string { return "registry" }

// Detect implements detect.Detector. The scan is line-major over focus
// lines, rules in table order within a line. Dedup is global for the
// pass: each rule id emits once per file, anchored to its first matching
// line in scan order; later occurrences of the same id are dropped.
func (d *Detector) Detect(content, path string, opts detect.Options) []signal.Signal {
	f := detect.NewFile(content, path, opts)
	firstLine := make(map[string]int)
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		text := f.Line(n)
		for _, r := range d.reg.rules {
			if !r.On() {
				continue
			}
			if r.Framework != "" && d.framework != "" && r.Framework != d.framework {
				continue
			}
			if !r.re.MatchString(text) {
				continue
			}
			if _, dup := firstLine[r.ID]; dup {
				continue
			}
			firstLine[r.ID] = n
			out = append(out, f.Emit(detect.Draft{
				ID:         r.ID,
				Title:      r.Title,
				Category:   r.Category,
				Reason:     r.Reason,
				Weight:     r.Weight,
				Lines:      []int{n},
				Confidence: signal.Confidence(r.Confidence),
				Tags:       r.Tags,
			}))
		}
	}
	return out
}
