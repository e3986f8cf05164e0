package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardCmd_Metadata(t *testing.T) {
	assert.Equal(t, "dashboard", dashboardCmd.Use)
	assert.Contains(t, dashboardCmd.Aliases, "tui")
}

func TestSetTUIConfig(t *testing.T) {
	setupTestServices(t)
	require.NotNil(t, tuiConfig)

	ports := buildTUIPorts()
	require.NotNil(t, ports)
	assert.NotNil(t, ports.Analytics)
	assert.NotNil(t, ports.CRUD)
	assert.NotNil(t, ports.Settings)
	assert.NoError(t, ports.Validate())
}

func TestBuildTUIPorts_NoAnalytics(t *testing.T) {
	setupTestServices(t)

	SetTUIConfig(nil)
	assert.Nil(t, buildTUIPorts())

	SetTUIConfig(&TUIConfig{})
	assert.Nil(t, buildTUIPorts())
}

func TestDashboardCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	SetTUIConfig(nil)

	_, err := execute(t, "dashboard")
	assert.EqualError(t, err, "analytics service not configured")
}
