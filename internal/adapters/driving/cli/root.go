// Package cli provides the couchlab command line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
	"github.com/custodia-labs/couchlab/internal/logger"
	"github.com/custodia-labs/couchlab/internal/metrics"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose    bool
	jsonOutput bool
	configDir  string
)

// Services injected by the composition root.
var (
	crudService      driving.CRUDService
	analyticsService driving.AnalyticsService
	etlService       driving.ETLService
	adminService     driving.AdminService
	settingsService  driving.SettingsService
	metricsCollector *metrics.Metrics
	configWatcher    func(ctx context.Context, onChange func()) error
	newScheduler     func(cfg domain.SchedulerConfig) driving.Scheduler
)

// Services bundles the driving ports used by commands.
type Services struct {
	CRUD      driving.CRUDService
	Analytics driving.AnalyticsService
	ETL       driving.ETLService
	Admin     driving.AdminService
	Settings  driving.SettingsService
	Metrics   *metrics.Metrics

	// WatchConfig reloads configuration for long-running commands. Optional.
	WatchConfig func(ctx context.Context, onChange func()) error

	// NewScheduler builds the maintenance scheduler. Optional.
	NewScheduler func(cfg domain.SchedulerConfig) driving.Scheduler
}

// GlobalOptions are the values of the persistent flags.
type GlobalOptions struct {
	Verbose   bool
	JSON      bool
	ConfigDir string
}

// Initializer wires services once flags are parsed. The returned cleanup
// runs after the command finishes.
type Initializer func(ctx context.Context, opts GlobalOptions) (cleanup func(), err error)

var (
	initializer Initializer
	cleanup     func()
)

var rootCmd = &cobra.Command{
	Use:   "couchlab",
	Short: "Commerce analytics on CouchDB",
	Long: `couchlab stores products, customers, orders and analytics events in a
CouchDB database and reports sales KPIs through aggregation views.

Run 'couchlab setup' once to create the database, indexes and views, then
'couchlab etl run' to load a sample dataset.`,
	SilenceUsage:      true,
	PersistentPreRunE: runInit,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON envelopes")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Config directory (default ~/.couchlab)")
}

// SetServices sets the services used by commands.
func SetServices(s Services) {
	crudService = s.CRUD
	analyticsService = s.Analytics
	etlService = s.ETL
	adminService = s.Admin
	settingsService = s.Settings
	metricsCollector = s.Metrics
	configWatcher = s.WatchConfig
	newScheduler = s.NewScheduler
}

// SetInitializer registers the function that wires services before a command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func runInit(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if initializer == nil {
		return nil
	}
	done, err := initializer(cmd.Context(), GlobalOptions{
		Verbose:   verbose,
		JSON:      jsonOutput,
		ConfigDir: configDir,
	})
	if err != nil {
		return err
	}
	cleanup = done
	return nil
}

// commandContext returns the command context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// emit prints an envelope. With --json the whole envelope is written;
// otherwise render prints the data of a successful result. A failed
// envelope becomes the command error.
func emit[T any](cmd *cobra.Command, r domain.Result[T], render func(T)) error {
	if jsonOutput {
		if err := writeJSON(cmd.OutOrStdout(), r); err != nil {
			return err
		}
		if !r.Success {
			return r.Err()
		}
		return nil
	}
	if !r.Success {
		return r.Err()
	}
	if render != nil {
		render(r.Data)
	} else {
		cmd.Println(r.Message)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func notConfigured(name string) error {
	return errors.New(name + " service not configured")
}
