package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/views/dashboard"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/views/sales"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	menuView       *menu.View
	dashboardView  *dashboard.View
	salesView      *sales.View
	documentsView  *documents.View
	docContentView *doccontent.View
	settingsView   *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
// Menu entries for optional ports that are not provided are hidden.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	topN := domain.DefaultTopN
	endpoint := ""
	if ports.Settings != nil {
		if cfg, err := ports.Settings.Get(); err == nil && cfg != nil {
			topN = cfg.Analytics.TopN
			endpoint = cfg.Connection.Endpoint()
		}
	}

	var hidden []messages.ViewType
	if ports.CRUD == nil {
		hidden = append(hidden, messages.ViewDocuments)
	}
	if ports.Settings == nil {
		hidden = append(hidden, messages.ViewSettings)
	}

	s := styles.DefaultStyles()
	dashboardView := dashboard.NewView(s, ports.Analytics, topN)
	dashboardView.SetEndpoint(endpoint)

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s, hidden...),
		dashboardView:  dashboardView,
		salesView:      sales.NewView(s, ports.Analytics),
		documentsView:  documents.NewView(s, ports.CRUD),
		docContentView: doccontent.NewView(s, ports.CRUD),
		settingsView:   settings.NewView(s, ports.Settings),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("couchlab - Commerce Analytics"),
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewDashboard:
			return a, a.dashboardView.Init()
		case messages.ViewSales:
			return a, a.salesView.Init()
		case messages.ViewDocuments:
			// Keep the listing when returning from a document.
			if len(a.documentsView.Documents()) == 0 {
				return a, a.documentsView.Init()
			}
		case messages.ViewSettings:
			return a, a.settingsView.Init()
		case messages.ViewMenu, messages.ViewDocContent, messages.ViewHelp:
		}
		return a, nil

	case messages.DocumentSelected:
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(msg.Document)

	case messages.SummaryLoaded, messages.CategoriesLoaded:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
		return a, cmd

	case messages.SalesLoaded:
		a.salesView, cmd = a.salesView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		a.err = a.documentsView.Err()
		return a, cmd

	case messages.DocumentLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward passes a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewDashboard:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
	case messages.ViewSales:
		a.salesView, cmd = a.salesView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDashboard:
		return a.dashboardView.View()
	case messages.ViewSales:
		return a.salesView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Dashboard:
  r           Refresh KPIs and categories

Sales:
  t           Toggle last 12 months
  j/k, ↑/↓    Scroll months

Documents:
  tab         Next document type
  /           Filter, e.g. price>=100 status=pending
  n           Next page
  enter       Show document

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.dashboardView.SetDimensions(width, height)
	a.salesView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
