// Command couchlab is the commerce analytics CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchlab/internal/adapters/driven/config/file"
	"github.com/custodia-labs/couchlab/internal/adapters/driven/exchange"
	"github.com/custodia-labs/couchlab/internal/adapters/driven/storage/couchdb"
	"github.com/custodia-labs/couchlab/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/cli"
	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
	"github.com/custodia-labs/couchlab/internal/core/services"
	"github.com/custodia-labs/couchlab/internal/logger"
	"github.com/custodia-labs/couchlab/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetInitializer(initialize)
	cli.SetConnectionChecker(checkConnection)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// initialize wires the adapters and services. The CouchDB client is lazy,
// so commands that only touch settings work while the server is down.
func initialize(_ context.Context, opts cli.GlobalOptions) (func(), error) {
	logger.SetJSON(opts.JSON)

	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	m := metrics.New(nil)

	client, err := couchdb.New(settings.Connection, m)
	if err != nil {
		return nil, fmt.Errorf("configuring couchdb client: %w", err)
	}

	crud := services.NewCRUDService(client)
	analytics := services.NewAnalyticsService(client, client)
	etl := services.NewETLService(crud)
	admin := services.NewAdminService(client, client, analytics, exchange.NewRegistry(), *settings)
	admin.SetDirWatcher(exchange.NewWatcher())

	snapshots, err := sqlite.NewStore(settings.Admin.BackupDir)
	if err != nil {
		logger.Warn("snapshots disabled: %v", err)
	} else {
		admin.SetSnapshotStore(snapshots)
	}

	cli.SetServices(cli.Services{
		CRUD:        crud,
		Analytics:   analytics,
		ETL:         etl,
		Admin:       admin,
		Settings:    settingsService,
		Metrics:     m,
		WatchConfig: configStore.Watch,
		NewScheduler: func(cfg domain.SchedulerConfig) driving.Scheduler {
			return services.NewScheduler(cfg, admin, analytics)
		},
	})
	cli.SetTUIConfig(&cli.TUIConfig{
		Analytics: analytics,
		CRUD:      crud,
		Settings:  settingsService,
	})

	return func() {
		client.Close()
		if snapshots != nil {
			if err := snapshots.Close(); err != nil {
				logger.Warn("closing snapshot store: %v", err)
			}
		}
	}, nil
}

// checkConnection opens a session with conn and returns the server version.
func checkConnection(cmd *cobra.Command, conn domain.ConnectionSettings) (string, error) {
	client, serverVersion, err := couchdb.Open(cmd.Context(), conn, nil)
	if err != nil {
		return "", err
	}
	client.Close()
	return serverVersion, nil
}
