package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/sigscan/internal/diff"
	"github.com/sprite-ai/sigscan/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review [commit-range]",
	Short: "Open an interactive signal triage session",
	Long: `Open an interactive TUI for triaging the signals found in a diff.
By default, reviews uncommitted changes against HEAD. Optionally specify
a commit range.

Examples:
  sigscan review                   # working tree vs HEAD
  sigscan review HEAD~1..HEAD      # last commit
  sigscan review main...HEAD       # branch vs main
  git diff | sigscan review -      # pipe any diff`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().IntP("context", "C", 3, "lines of diff context")
	reviewCmd.Flags().Bool("stat", false, "print diff stats and exit (non-interactive)")
}

func runReview(cmd *cobra.Command, args []string) error {
	contextLines, _ := cmd.Flags().GetInt("context")

	raw, err := getDiff(args, contextLines)
	if err != nil {
		return err
	}

	if strings.TrimSpace(raw) == "" {
		fmt.Println("No changes to review.")
		return nil
	}

	ds, err := diff.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing diff: %w", err)
	}

	if len(ds.Files) == 0 {
		fmt.Println("No changes to review.")
		return nil
	}

	stat, _ := cmd.Flags().GetBool("stat")
	if stat {
		return printStat(ds)
	}

	reg, err := customRegistry(cmd)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	profile, _ := cmd.Flags().GetString("profile")
	repoDir, _ := gitRepoRoot()

	files, err := collectFromDiff(ds, repoDir, profile, reg, 0)
	if err != nil {
		return err
	}

	total := 0
	for _, f := range files {
		total += len(f.Signals)
	}
	if total == 0 {
		fmt.Println("No signals found.")
		return nil
	}
	fmt.Fprintf(os.Stderr, "Found %d signal(s) in %d file(s)\n", total, len(files))

	result, err := tui.Run(files)
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	if summary := result.Summary(files); summary != "" {
		fmt.Println(summary)
	}

	return nil
}

func printStat(ds *diff.Set) error {
	files, added, deleted := ds.Stats()
	fmt.Printf("%d file(s) changed, %d insertions(+), %d deletions(-)\n\n", files, added, deleted)
	for _, f := range ds.Files {
		status := "M"
		if f.IsNew {
			status = "A"
		} else if f.IsDeleted {
			status = "D"
		} else if f.IsRenamed {
			status = "R"
		}
		fmt.Printf("  %s %-50s +%-4d -%d\n", status, f.Name(), f.AddedLines, f.DeletedLines)
	}
	return nil
}
