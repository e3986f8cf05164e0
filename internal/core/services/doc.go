// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Public service methods return domain.Result envelopes; adapter errors
// are classified at this boundary and never returned raw.
package services
