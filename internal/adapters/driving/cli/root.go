// Package cli provides the vaultscout command-line interface.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/core/ports/driving"
	"github.com/vaultscout/vaultscout/internal/logger"
)

// version is set by Execute from the build.
var version = "dev"

// Package-level service handles, wired by initServices. Tests replace
// these with mocks.
var (
	settings          domain.Settings
	searchService     driving.SearchService
	indexOrchestrator driving.IndexOrchestrator
	queryExpander     driving.QueryExpander
	cacheAdmin        driving.CacheAdmin
	notesStore        driven.DocumentStore

	// closeServices releases adapter resources after a command runs.
	closeServices func()
)

var (
	verboseFlag   bool
	configDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "vaultscout",
	Short: "Semantic search over an Obsidian notes vault",
	Long: `vaultscout indexes a Markdown notes vault and searches it with
semantic (vector), keyword (BM25), hybrid, and fuzzy retrieval, with
optional query expansion and cross-encoder re-ranking.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"print pipeline stages to stderr")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"config directory (default ~/.vaultscout)")
}

// Execute runs the root command.
func Execute(v string) error {
	version = v

	// A .env in the working directory may carry API keys.
	_ = godotenv.Load()

	defer func() {
		if closeServices != nil {
			closeServices()
		}
	}()

	return rootCmd.Execute()
}
