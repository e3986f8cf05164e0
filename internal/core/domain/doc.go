// Package domain defines the core business entities for couchlab.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Product, Customer, Order, Event: the four document kinds
//   - Document: the tagged variant implemented by every kind
//   - Query: a Mango query descriptor ready to submit
//   - Result: the success/error envelope returned by every service
//   - KPISummary and friends: analytics output consumed by presentation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
