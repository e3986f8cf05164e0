package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "root"},
		{"", "root"},
		{"/_users/org.couchdb.user:analyst", "_users"},
		{"/shop", "database"},
		{"/shop/_find", "_find"},
		{"/shop/_bulk_docs", "_bulk_docs"},
		{"/shop/_security", "_security"},
		{"/shop/_design/analytics", "design"},
		{"/shop/_design/analytics/_view/sales_by_month", "design/_view"},
		{"/shop/_design/analytics/_info", "design/_info"},
		{"/shop/product_123", "document"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Endpoint(tt.path))
		})
	}
}

func TestInstrumentTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/shop/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New(prometheus.NewRegistry())
	client := &http.Client{Transport: m.InstrumentTransport(http.DefaultTransport)}

	for _, path := range []string{"/shop/a", "/shop/b", "/shop/missing"} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "document", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "document", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsInFlight))
}

func TestToolCallAndHandler(t *testing.T) {
	m := New(nil)
	m.ToolCall("kpi_summary", true)
	m.ToolCall("kpi_summary", false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `couchlab_tool_calls_total{outcome="success",tool="kpi_summary"} 1`), body)
	assert.Contains(t, body, `couchlab_tool_calls_total{outcome="failure",tool="kpi_summary"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.Equal(t, http.DefaultTransport, m.InstrumentTransport(http.DefaultTransport))
	m.ToolCall("x", true)
}
