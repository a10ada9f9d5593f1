package registry

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk document shape.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads a YAML rule document and compiles it.
func Load(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return Compile(doc.Rules)
}

// LoadFile reads and compiles a rule file from disk.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules: %w", err)
	}
	defer f.Close()
	reg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Default returns a small built-in table. It exists so the registry engine
// is usable without a rule file; real deployments supply their own.
func Default() *Registry {
	reg, err := Compile([]Rule{
		{
			ID:       "registry-debugger-statement",
			Title:    "debugger statement",
			Category: "debug",
			Pattern:  `\bdebugger\b`,
			Weight:   0.4,
			Reason:   "a committed debugger statement halts every client with devtools open",
		},
		{
			ID:       "registry-alert-call",
			Title:    "alert() call",
			Category: "debug",
			Pattern:  `\balert\s*\(`,
			Weight:   0.3,
			Reason:   "blocking alert dialogs do not belong in committed code",
		},
		{
			ID:       "registry-merge-conflict-marker",
			Title:    "Merge conflict marker",
			Category: "correctness",
			Pattern:  `^(<{7}|={7}|>{7})`,
			Weight:   0.8,
			Reason:   "an unresolved conflict marker survived the merge",
		},
	})
	if err != nil {
		panic(err)
	}
	return reg
}
