package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/sigscan/internal/registry"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect custom detection rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules in a rules file (or the built-in set)",
	RunE:  runRulesList,
}

var rulesLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a rules file without running it",
	RunE:  runRulesLint,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesLintCmd)
}

func loadRules(cmd *cobra.Command) (*registry.Registry, error) {
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(path)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	reg, err := loadRules(cmd)
	if err != nil {
		return err
	}

	for _, r := range reg.Rules() {
		state := ""
		if !r.On() {
			state = " (disabled)"
		}
		fw := ""
		if r.Framework != "" {
			fw = " [" + r.Framework + "]"
		}
		fmt.Printf("%-36s %.2f%s%s  %s\n", r.ID, r.Weight, fw, state, r.Title)
	}
	fmt.Printf("\n%d rule(s)\n", reg.Len())
	return nil
}

func runRulesLint(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		return fmt.Errorf("--rules is required for lint")
	}

	reg, err := registry.LoadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d rule(s), all patterns compile\n", path, reg.Len())
	return nil
}
