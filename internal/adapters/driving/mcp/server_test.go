package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/metrics"
)

func TestNewServer(t *testing.T) {
	t.Run("nil analytics service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{}, nil)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAnalyticsService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Analytics: &mockAnalyticsService{}}, nil)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil analytics service returns error", func(t *testing.T) {
		assert.ErrorIs(t, (&Ports{CRUD: &mockCRUDService{}}).Validate(), ErrMissingAnalyticsService)
	})

	t.Run("analytics only is valid", func(t *testing.T) {
		assert.NoError(t, (&Ports{Analytics: &mockAnalyticsService{}}).Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		assert.NoError(t, (&Ports{Analytics: &mockAnalyticsService{}, CRUD: &mockCRUDService{}}).Validate())
	})
}

func TestServer_Handler_ServesMetrics(t *testing.T) {
	m := metrics.New(nil)
	m.ToolCall("kpi_summary", true)
	server, err := NewServer(&Ports{Analytics: &mockAnalyticsService{}}, m)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tool="kpi_summary"`)
}

func TestServer_Handler_NoMetrics(t *testing.T) {
	server, err := NewServer(&Ports{Analytics: &mockAnalyticsService{}}, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.NotContains(t, rec.Body.String(), "couchlab_tool_calls_total")
}
