package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// loadSample registers the views and loads a seeded dataset.
func loadSample(t *testing.T) {
	t.Helper()
	mustExecute(t, "setup")
	mustExecute(t, "etl", "run", "--seed", "42")
	resetFlags()
}

func TestETLCmd_RunAndVerify(t *testing.T) {
	setupTestServices(t)

	out := mustExecute(t, "etl", "run", "--seed", "7", "--orders", "10", "--events", "20")
	assert.Contains(t, out, "ETL complete")
	assert.Contains(t, out, "Orders:    10")
	assert.Contains(t, out, "Inserted:  38 of 38")
	assert.NotContains(t, out, "Failed")

	out = mustExecute(t, "etl", "verify")
	assert.Contains(t, out, "Products")
	assert.Contains(t, out, "Events     20")
	assert.Contains(t, out, "Total      38")
}

func TestETLCmd_JSON(t *testing.T) {
	setupTestServices(t)

	out := mustExecute(t, "--json", "etl", "run", "--seed", "7")
	r := decodeEnvelope[domain.ETLReport](t, out)
	require.True(t, r.Success, r.Error)
	defaults := domain.DefaultETLOptions()
	assert.Equal(t, defaults.Orders, r.Data.Orders)
	assert.Equal(t, defaults.Events, r.Data.Events)
	assert.Equal(t, r.Data.Total, r.Data.Inserted)
}

func TestETLCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	SetServices(Services{})

	_, err := execute(t, "etl", "verify")
	assert.EqualError(t, err, "etl service not configured")
}
