// Package services contains the core business logic: search orchestration
// across keyword, semantic, hybrid, and fuzzy modes; cross-encoder
// re-ranking; query expansion; and vault indexing. Services depend only
// on domain types and ports, never on concrete adapters.
package services
