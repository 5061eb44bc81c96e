// Command vaultscout indexes and searches an Obsidian vault.
package main

import (
	"os"

	"github.com/vaultscout/vaultscout/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
