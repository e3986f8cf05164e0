package cli

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

func TestSettingsCmd_Show(t *testing.T) {
	setupTestServices(t)

	out := mustExecute(t, "settings")
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "http://localhost:5984")
	assert.Contains(t, out, "tp_database")
	assert.Contains(t, out, "Password:   ****")
	assert.NotContains(t, out, "admin123")
	assert.Contains(t, out, "Rate limit: none")
}

func TestSettingsCmd_ShowJSONMasksPassword(t *testing.T) {
	setupTestServices(t)
	mustExecute(t, "settings", "set", "couchdb.password", "a-much-longer-password")

	out := mustExecute(t, "--json", "settings", "show")
	assert.Contains(t, out, "a-...rd")
	assert.NotContains(t, out, "a-much-longer-password")
}

func TestSettingsCmd_Set(t *testing.T) {
	setupTestServices(t)

	out := mustExecute(t, "settings", "set", "couchdb.database", "shop")
	assert.Contains(t, out, "Set couchdb.database")

	mustExecute(t, "settings", "set", "couchdb.rate_limit", "2.5")

	out = mustExecute(t, "settings", "show")
	assert.Contains(t, out, "Database:   shop")
	assert.Contains(t, out, "Rate limit: 2.5 req/s")
}

func TestSettingsCmd_SetInvalid(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "settings", "set", "couchdb.colour", "blue")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "settings", "set", "analytics.top_n", "-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_Connect(t *testing.T) {
	setupTestServices(t)

	var checked domain.ConnectionSettings
	SetConnectionChecker(func(_ *cobra.Command, conn domain.ConnectionSettings) (string, error) {
		checked = conn
		return "3.3.3", nil
	})

	input := "http://couch.internal:5984\nops\nnewpass\nshop\n"
	out, err := executeWithInput(t, input, "settings", "connect")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Connected to CouchDB 3.3.3")
	assert.Contains(t, out, "Connection settings saved.")
	assert.Equal(t, "http://couch.internal:5984", checked.URL)
	assert.Equal(t, "newpass", checked.Password)

	s, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, "ops", s.Connection.User)
	assert.Equal(t, "shop", s.Connection.Database)
}

func TestSettingsCmd_ConnectKeepsDefaults(t *testing.T) {
	setupTestServices(t)

	out, err := executeWithInput(t, "\n\n\n\n", "settings", "connect")
	require.NoError(t, err, out)

	s, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings().Connection.URL, s.Connection.URL)
	assert.Equal(t, "admin123", s.Connection.Password)
}

func TestSettingsCmd_ConnectCheckFails(t *testing.T) {
	setupTestServices(t)
	SetConnectionChecker(func(*cobra.Command, domain.ConnectionSettings) (string, error) {
		return "", errors.New("connection refused")
	})

	_, err := executeWithInput(t, "\n\n\nother\n", "settings", "connect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	s, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, "tp_database", s.Connection.Database)
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	SetServices(Services{})

	_, err := execute(t, "settings")
	assert.EqualError(t, err, "settings service not configured")
}

func TestMaskSecret(t *testing.T) {
	assert.Empty(t, maskSecret(""))
	assert.Equal(t, "****", maskSecret("admin123"))
	assert.Equal(t, "ab...yz", maskSecret("abcdefghxyz"))
}
