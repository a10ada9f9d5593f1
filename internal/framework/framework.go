// Package framework layers ecosystem-specific probes on top of the generic
// detection battery.
//
// A layer is an applicability predicate plus extra probes. Composition is
// concatenation: the base battery always runs, the layer's probes run only
// when the predicate holds for the file. The predicate is evaluated once per
// file from path conventions and whole-file content markers, never per line.
package framework

import (
	"strings"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

// Layer describes one ecosystem's additional battery.
type Layer struct {
	Name    string
	Applies func(content, path string) bool
	Probes  []detect.Probe
}

// Detector composes the generic battery with one layer.
type Detector struct {
	layer Layer
	base  detect.Detector
}

// New wraps a layer around the generic detector.
func New(layer Layer) *Detector {
	return &Detector{layer: layer, base: detect.NewGeneric()}
}

// Name implements detect.Detector.
func (d *Detector) Name() string { return d.layer.Name }

// Detect implements detect.Detector: generic signals always, layer signals
// when the file is applicable.
func (d *Detector) Detect(content, path string, opts detect.Options) []signal.Signal {
	out := d.base.Detect(content, path, opts)
	if d.layer.Applies(content, path) {
		f := detect.NewFile(content, path, opts)
		out = append(out, detect.RunProbes(f, d.layer.Probes)...)
	}
	return out
}

// hasExt reports whether path ends with any of the extensions.
func hasExt(path string, exts ...string) bool {
	for _, e := range exts {
		if strings.HasSuffix(path, e) {
			return true
		}
	}
	return false
}

// importsAny reports whether the whole-file content references any marker.
func importsAny(content string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(content, m) {
			return true
		}
	}
	return false
}

// ruleProbe adapts a rule table to a Probe.
func ruleProbe(rules []detect.Rule) detect.Probe {
	return func(f *detect.File) []signal.Signal {
		return detect.ScanRules(f, rules)
	}
}
