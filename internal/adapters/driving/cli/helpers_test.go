package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/adapters/driven/exchange"
	"github.com/custodia-labs/couchlab/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/services"
)

type testEnv struct {
	store     *memory.DocumentStore
	config    *memory.ConfigStore
	snapshots *memory.SnapshotStore
}

// setupTestServices wires real services over memory stores and resets
// every flag variable, since cobra keeps flag values between executions.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewDocumentStore()
	config := memory.NewConfigStore()
	snapshots := memory.NewSnapshotStore()

	settings := services.NewSettingsService(config)
	crud := services.NewCRUDService(store)
	analytics := services.NewAnalyticsService(store, store)
	admin := services.NewAdminService(store, store, analytics, exchange.NewRegistry(), domain.DefaultAppSettings())
	admin.SetSnapshotStore(snapshots)

	SetServices(Services{
		CRUD:      crud,
		Analytics: analytics,
		ETL:       services.NewETLService(crud),
		Admin:     admin,
		Settings:  settings,
	})
	SetTUIConfig(&TUIConfig{Analytics: analytics, CRUD: crud, Settings: settings})
	SetInitializer(nil)
	SetConnectionChecker(nil)
	resetFlags()

	t.Cleanup(func() {
		SetServices(Services{})
		SetTUIConfig(nil)
		resetFlags()
	})
	return &testEnv{store: store, config: config, snapshots: snapshots}
}

func resetFlags() {
	verbose, jsonOutput, configDir = false, false, ""

	docData, docFile, docRev, docBookmark = "", "", "", ""
	docSet, docSort, docFields = nil, nil, nil
	docSoft, docAll = false, false
	docLimit = 25

	analyticsTopN, analyticsFrom, analyticsTo = 0, "", ""
	analyticsLimit, analyticsDays = 10, 7

	defaults := domain.DefaultETLOptions()
	etlOrders, etlEvents, etlSeed = defaults.Orders, defaults.Events, 0

	adminRole, adminPassword, adminAnalyst = domain.RoleAnalyst, "", ""
	adminFormat, adminKind, adminOutput, adminWatchDir = "", "", "", ""
	adminUpdateExisting = false

	adminBackupEvery, adminViewsEvery = 0, 0

	mcpHTTPAddr = ""
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := Execute(context.Background())
	return buf.String(), err
}

// mustExecute runs args and fails the test on error.
func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, out)
	return out
}
