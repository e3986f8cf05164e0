// Package tui provides an interactive terminal dashboard for couchlab.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analytics provides the KPI summary and aggregations.
	Analytics driving.AnalyticsService

	// CRUD browses documents. Optional: the documents view is hidden without it.
	CRUD driving.CRUDService

	// Settings shows and edits the configuration. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	analytics driving.AnalyticsService,
	crud driving.CRUDService,
	settings driving.SettingsService,
) *Ports {
	return &Ports{
		Analytics: analytics,
		CRUD:      crud,
		Settings:  settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Analytics == nil {
		return ErrMissingAnalyticsService
	}
	return nil
}
