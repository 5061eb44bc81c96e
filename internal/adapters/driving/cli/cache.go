package cli

import (
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache maintenance commands",
	Long:  `Inspect and clear the query embedding and search result caches.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache occupancy",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty both caches",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	stats := cacheAdmin.Stats()
	cmd.Printf("Embedding cache: %d entries\n", stats.EmbeddingEntries)
	cmd.Printf("Result cache:    %d entries\n", stats.ResultEntries)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	cacheAdmin.Clear(cmd.Context())
	cmd.Println("Caches cleared.")
	return nil
}
