// Package driving defines interfaces that external actors (CLI, TUI, MCP)
// use to interact with core services. These are the "driving" ports in
// hexagonal architecture terminology - they drive the application.
//
// Every operation that touches the database returns a domain.Result
// envelope instead of an error.
//
// Implementations of these interfaces live in internal/core/services.
package driving
