package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault and re-index changes",
	Long: `Runs an initial vault sync, then watches the vault directory and
re-indexes notes as they change. Stops on Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := indexOrchestrator.SyncVault(ctx, false)
	if err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}
	cmd.Printf("Initial sync: %d indexed, %d skipped, %d removed.\n",
		stats.Indexed, stats.Skipped, stats.Removed)

	cmd.Println("Watching vault for changes (Ctrl-C to stop)...")
	if err := indexOrchestrator.Watch(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Println("Watch stopped.")
	return nil
}
