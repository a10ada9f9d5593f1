package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Scan whole files without a diff",
	Long: `Scan one or more files in full, with no diff scoping.
Every line is treated as changed, so all detectors see the whole file.

Examples:
  sigscan scan src/auth.ts
  sigscan scan --profile react src/components/*.tsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
	scanCmd.Flags().Bool("color", false, "colorize text output")
	scanCmd.Flags().Bool("snippets", false, "include code snippets in text output")
}

func runScan(cmd *cobra.Command, args []string) error {
	reg, err := customRegistry(cmd)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	profile, _ := cmd.Flags().GetString("profile")

	var files []signal.FileSignals
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		signals, err := analyzeFile(string(data), path, profile, reg, detect.Options{})
		if err != nil {
			return err
		}
		files = append(files, signal.FileSignals{
			Path:    path,
			Signals: signals,
			Summary: signal.Summarize(signals),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	format, _ := cmd.Flags().GetString("format")
	if err := output(files, format, cmd); err != nil {
		return err
	}

	exitBySeverity(files)
	return nil
}
