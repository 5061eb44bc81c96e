package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the notes vault",
	Long: `Scans the configured vault and indexes new or modified notes into
the document store, keyword index, and vector index. Unchanged notes
are skipped unless --force is given; notes whose files are gone are
removed.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "re-index unchanged notes too")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	cmd.Println("Indexing vault...")

	stats, err := indexOrchestrator.SyncVault(cmd.Context(), indexForce)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Scanned %d notes: %d indexed (%d chunks), %d skipped, %d removed.\n",
		stats.Scanned, stats.Indexed, stats.Chunks, stats.Skipped, stats.Removed)
	return nil
}
