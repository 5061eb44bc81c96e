package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

var expandStrategy string

var expandCmd = &cobra.Command{
	Use:   "expand [query]",
	Short: "Show how a query would be expanded",
	Long: `Analyses and rewrites a query without running a search, showing the
expanded form, detected intent and entities, and the expander's
confidence. Useful for tuning the synonym table.`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().StringVarP(&expandStrategy, "strategy", "s", "rules",
		"expansion strategy: rules, llm, hybrid")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	analysis, err := queryExpander.Expand(cmd.Context(), args[0],
		domain.ExpansionStrategy(expandStrategy))
	if err != nil {
		return fmt.Errorf("expansion failed: %w", err)
	}

	cmd.Printf("Original:   %s\n", analysis.Original)
	cmd.Printf("Expanded:   %s\n", analysis.Expanded)
	cmd.Printf("Strategy:   %s\n", analysis.Strategy)
	cmd.Printf("Intent:     %s\n", analysis.Intent)
	if len(analysis.Entities) > 0 {
		cmd.Printf("Entities:   %s\n", strings.Join(analysis.Entities, ", "))
	}
	cmd.Printf("Confidence: %.0f%%\n", analysis.Confidence*100)
	return nil
}
