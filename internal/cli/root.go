// Package cli implements the sigscan command-line interface.
package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/diff"
	"github.com/sprite-ai/sigscan/internal/registry"
	"github.com/sprite-ai/sigscan/internal/router"
	"github.com/sprite-ai/sigscan/internal/signal"
)

var rootCmd = &cobra.Command{
	Use:   "sigscan",
	Short: "Diff-aware review signal scanner",
	Long: `sigscan scans JavaScript and TypeScript changes for review signals:
security-sensitive edits, behavioral side effects, and maintainability
smells. Detection is scoped to the lines a diff actually touched, with
framework-specific rule packs layered on top of a generic battery.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("profile", router.ProfileAuto, "detection profile (see 'sigscan profiles')")
	rootCmd.PersistentFlags().String("rules", "", "path to a custom rules YAML file")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List available detection profiles",
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range router.Profiles() {
			fmt.Println(p)
		}
	},
}

func getDiff(args []string, contextLines int) (string, error) {
	// Read from stdin if "-" is passed
	if len(args) == 1 && args[0] == "-" {
		data, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	repoDir, err := gitRepoRoot()
	if err != nil {
		return "", fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}

	if len(args) == 1 {
		return diff.GitDiffRange(repoDir, args[0], contextLines)
	}

	return diff.GitDiffHead(repoDir, contextLines)
}

func gitRepoRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// customRegistry loads the --rules file when given. A nil registry means
// no custom rules were requested.
func customRegistry(cmd *cobra.Command) (*registry.Registry, error) {
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		return nil, nil
	}
	return registry.LoadFile(path)
}

// analyzeFile runs the routed detector and, when reg is non-nil, the
// registry detector over one file and merges the results.
func analyzeFile(content, path, profile string, reg *registry.Registry, opts detect.Options) ([]signal.Signal, error) {
	signals, err := router.Analyze(content, path, profile, opts)
	if err != nil {
		return nil, err
	}
	if reg != nil {
		rd := registry.NewDetector(reg, "")
		signals = append(signals, rd.Detect(content, path, opts)...)
	}
	return signals, nil
}

// collectFromDiff analyzes every non-deleted text file in the diff using
// worktree contents, scoping detection to the diff's changed ranges.
// Files missing from the worktree are skipped with a note on stderr.
func collectFromDiff(ds *diff.Set, repoDir, profile string, reg *registry.Registry, contextLines int) ([]signal.FileSignals, error) {
	ranges := ds.ChangedRanges()

	var out []signal.FileSignals
	for _, f := range ds.Files {
		if f.IsDeleted || f.IsBinary {
			continue
		}
		path := f.Path()
		data, err := os.ReadFile(filepath.Join(repoDir, path))
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}
		signals, err := analyzeFile(string(data), path, profile, reg, detect.Options{
			ChangedRanges: ranges[path],
			ContextLines:  contextLines,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, signal.FileSignals{
			Path:    path,
			Signals: signals,
			Summary: signal.Summarize(signals),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
