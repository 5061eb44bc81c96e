// Package domain contains the core business entities for vaultscout:
// documents, chunks, search options and results, metadata filters, and
// query analysis. It has no dependencies on adapters or external services.
package domain
