package mcp

import (
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analytics serves the KPI and aggregation tools.
	Analytics driving.AnalyticsService

	// CRUD serves document lookups. Optional.
	CRUD driving.CRUDService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Analytics == nil {
		return ErrMissingAnalyticsService
	}
	return nil
}
