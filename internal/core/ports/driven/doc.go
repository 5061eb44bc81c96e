// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding and LLM providers, the vector
// and keyword indexes, the cross-encoder, caches, the document store,
// and the vault source.
package driven
