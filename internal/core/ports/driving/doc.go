// Package driving provides interfaces consumed by external actors
// (primary/inbound ports): the CLI and MCP adapters call core services
// through these interfaces.
package driving
