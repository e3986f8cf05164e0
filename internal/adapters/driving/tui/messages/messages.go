// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
//
// Loaded messages carry the service envelope unchanged so views decide how
// to render a failure.
package messages

import (
	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewDashboard shows the KPI summary.
	ViewDashboard
	// ViewSales shows revenue per month.
	ViewSales
	// ViewDocuments browses documents of one kind.
	ViewDocuments
	// ViewDocContent shows one document as JSON.
	ViewDocContent
	// ViewSettings shows the configuration.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewDashboard:
		return "dashboard"
	case ViewSales:
		return "sales"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// RefreshRequested asks the active view to reload its data.
type RefreshRequested struct{}

// SummaryLoaded carries the KPI summary.
type SummaryLoaded struct {
	Result domain.Result[domain.KPISummary]
}

// CategoriesLoaded carries the products-by-category aggregation.
type CategoriesLoaded struct {
	Result domain.Result[domain.ProductsByCategory]
}

// SalesLoaded carries the sales-by-month aggregation.
type SalesLoaded struct {
	Result domain.Result[domain.SalesByMonth]
}

// DocumentsLoaded carries one page of documents of a kind.
type DocumentsLoaded struct {
	Kind   domain.Kind
	Result domain.Result[domain.FindResult]
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	Document domain.RawDoc
}

// DocumentLoaded carries a freshly fetched document.
type DocumentLoaded struct {
	DocumentID string
	Result     domain.Result[domain.RawDoc]
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved signals a setting was saved.
type SettingsSaved struct {
	Key string
	Err error
}
