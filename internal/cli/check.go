package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/sigscan/internal/diff"
	"github.com/sprite-ai/sigscan/internal/report"
	"github.com/sprite-ai/sigscan/internal/signal"
)

var checkCmd = &cobra.Command{
	Use:   "check [commit-range]",
	Short: "Scan a diff and output a signal report (non-interactive)",
	Long: `Scan the diff for review signals and output a structured report.
Detection is scoped to the changed lines plus a small context window.
Useful for CI, pre-commit hooks, and piping into other tools.

Exit codes:
  0 — no warnings or blockers
  1 — warnings found
  2 — blockers found

Examples:
  sigscan check                    # working tree vs HEAD
  sigscan check main...HEAD        # branch vs main
  git diff | sigscan check -       # pipe any diff`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
	checkCmd.Flags().IntP("context", "C", 3, "lines of diff context")
	checkCmd.Flags().Bool("color", false, "colorize text output")
	checkCmd.Flags().Bool("snippets", false, "include code snippets in text output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	contextLines, _ := cmd.Flags().GetInt("context")

	raw, err := getDiff(args, contextLines)
	if err != nil {
		return err
	}

	if strings.TrimSpace(raw) == "" {
		fmt.Println("No changes to check.")
		return nil
	}

	ds, err := diff.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing diff: %w", err)
	}

	if len(ds.Files) == 0 {
		fmt.Println("No changes to check.")
		return nil
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

	format, _ := cmd.Flags().GetString("format")
	if err := output(files, format, cmd); err != nil {
		return err
	}

	exitBySeverity(files)
	return nil
}

func output(files []signal.FileSignals, format string, cmd *cobra.Command) error {
	switch format {
	case "json":
		return report.JSON(os.Stdout, files)
	case "markdown":
		return report.Markdown(os.Stdout, files)
	case "text":
		color, _ := cmd.Flags().GetBool("color")
		snippets, _ := cmd.Flags().GetBool("snippets")
		return report.Text(os.Stdout, files, report.Options{Color: color, Snippets: snippets})
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// exitBySeverity terminates the process with the severity-derived exit
// code when the report is not clean.
func exitBySeverity(files []signal.FileSignals) {
	switch report.MaxSeverity(files) {
	case signal.SeverityBlocker:
		os.Exit(2)
	case signal.SeverityWarn:
		os.Exit(1)
	}
}
