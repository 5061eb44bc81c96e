package mcp

import (
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/core/ports/driving"
)

// Ports aggregates the interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides search capabilities.
	Search driving.SearchService

	// Notes provides read access to indexed notes for resources.
	Notes driven.DocumentStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Notes is optional; resources degrade without it
	return nil
}
