// Package router maps a (content, path, profile) triple to a concrete
// detector. An explicit profile always wins; the auto profile runs an
// ordered marker cascade and instantiates the first match.
package router

import (
	"fmt"
	"sort"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/framework"
	"github.com/sprite-ai/sigscan/internal/signal"
)

// ProfileAuto selects a detector from file markers.
const ProfileAuto = "auto"

// layers maps each explicit profile name to its layer constructor. The
// generic profile has no layer and is handled separately.
var layers = map[string]func() framework.Layer{
	"node":    framework.Node,
	"react":   framework.React,
	"vue":     framework.Vue,
	"angular": framework.Angular,
	"svelte":  framework.Svelte,
	"ssr":     framework.SSR,
	"native":  framework.Native,
	"desktop": framework.Desktop,
}

// cascade is the auto-detection order. More specific runtimes come first:
// a desktop shell file also carries Node markers, and an SSR page also
// carries React markers, so the specific predicate must win. Once a
// predicate matches, the rest are never evaluated.
var cascade = []string{
	"desktop",
	"native",
	"ssr",
	"svelte",
	"vue",
	"angular",
	"react",
	"node",
}

// Profiles returns every accepted profile name, sorted, with auto first.
func Profiles() []string {
	names := make([]string, 0, len(layers)+2)
	for name := range layers {
		names = append(names, name)
	}
	names = append(names, "generic")
	sort.Strings(names)
	return append([]string{ProfileAuto}, names...)
}

// For resolves an explicit profile to its detector. The auto profile is
// rejected here; it needs file content to resolve.
func For(profile string) (detect.Detector, error) {
	if profile == "generic" {
		return detect.NewGeneric(), nil
	}
	mk, ok := layers[profile]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", profile)
	}
	return framework.New(mk()), nil
}

// Route picks the detector for one file. With an explicit profile the
// choice is a direct lookup; with auto it is the first cascade entry whose
// applicability predicate matches, falling back to the generic battery.
func Route(content, path, profile string) (detect.Detector, error) {
	if profile != "" && profile != ProfileAuto {
		return For(profile)
	}
	for _, name := range cascade {
		layer := layers[name]()
		if layer.Applies(content, path) {
			return framework.New(layer), nil
		}
	}
	return detect.NewGeneric(), nil
}

// Analyze routes and runs the chosen detector in one step.
func Analyze(content, path, profile string, opts detect.Options) ([]signal.Signal, error) {
	d, err := Route(content, path, profile)
	if err != nil {
		return nil, err
	}
	return d.Detect(content, path, opts), nil
}
