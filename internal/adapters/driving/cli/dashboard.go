package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

// TUIConfig holds configuration for the dashboard command.
type TUIConfig struct {
	Analytics driving.AnalyticsService
	CRUD      driving.CRUDService
	Settings  driving.SettingsService
}

var tuiConfig *TUIConfig

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive dashboard",
	Long: `Launch the terminal dashboard with the KPI summary, monthly sales, a
document browser and the settings editor.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Select
  r        - Refresh
  Esc      - Back
  ?        - Help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

// SetTUIConfig sets the configuration for the dashboard command.
func SetTUIConfig(config *TUIConfig) {
	tuiConfig = config
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// buildTUIPorts returns the ports for the dashboard, or nil when the
// analytics service is missing.
func buildTUIPorts() *tui.Ports {
	if tuiConfig == nil || tuiConfig.Analytics == nil {
		return nil
	}
	return tui.NewPorts(tuiConfig.Analytics, tuiConfig.CRUD, tuiConfig.Settings)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in dashboard: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := buildTUIPorts()
	if ports == nil {
		return notConfigured("analytics")
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}
	ctx := commandContext(cmd)
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	// Reload the active view when the config file changes.
	watchSettings(cmd, func(*domain.AppSettings) {
		p.Send(messages.RefreshRequested{})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
