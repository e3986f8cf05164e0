package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

func TestAnalyticsCmd_Views(t *testing.T) {
	setupTestServices(t)

	out := mustExecute(t, "analytics", "views")
	assert.Contains(t, out, "Design:")
	assert.Contains(t, out, "sales_by_month")
}

func TestAnalyticsCmd_Summary(t *testing.T) {
	setupTestServices(t)
	loadSample(t)

	out := mustExecute(t, "analytics", "summary", "--top", "2")
	assert.Contains(t, out, "KPI Summary")
	assert.Contains(t, out, "Top products by revenue:")
	assert.Contains(t, out, "  1. ")
	assert.Contains(t, out, "  2. ")
	assert.NotContains(t, out, "  3. ")
	assert.Contains(t, out, "Categories:")
}

func TestAnalyticsCmd_SummaryUsesSettingsTopN(t *testing.T) {
	setupTestServices(t)
	loadSample(t)
	mustExecute(t, "settings", "set", "analytics.top_n", "1")

	out := mustExecute(t, "--json", "analytics", "summary")
	r := decodeEnvelope[domain.KPISummary](t, out)
	require.True(t, r.Success, r.Error)
	assert.Len(t, r.Data.TopProducts, 1)
}

func TestAnalyticsCmd_SummaryEmpty(t *testing.T) {
	setupTestServices(t)
	mustExecute(t, "setup")

	out := mustExecute(t, "analytics", "summary")
	assert.Contains(t, out, "Orders:              0")
	assert.Contains(t, out, "(none)")
}

func TestAnalyticsCmd_Sales(t *testing.T) {
	setupTestServices(t)
	loadSample(t)

	out := mustExecute(t, "analytics", "sales")
	assert.Contains(t, out, "month")
	assert.Contains(t, out, "total")

	_, err := execute(t, "analytics", "sales", "--from", "2024-13")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from")
}

func TestAnalyticsCmd_SalesEmptyRange(t *testing.T) {
	setupTestServices(t)
	loadSample(t)

	out := mustExecute(t, "analytics", "sales", "--from", "1990-01", "--to", "1990-02")
	assert.Contains(t, out, "No orders in range")
}

func TestAnalyticsCmd_Categories(t *testing.T) {
	setupTestServices(t)
	loadSample(t)

	out := mustExecute(t, "analytics", "categories")
	assert.Contains(t, out, "total value")
	assert.Contains(t, out, "Electronics")
}

func TestAnalyticsCmd_TopProductsCustomersProductsRecent(t *testing.T) {
	setupTestServices(t)
	loadSample(t)

	out := mustExecute(t, "analytics", "top-products", "-n", "3")
	assert.Contains(t, out, "  1. ")
	assert.Contains(t, out, "units")

	out = mustExecute(t, "analytics", "customers")
	assert.Contains(t, out, "Customers:        3")

	out = mustExecute(t, "analytics", "products")
	assert.Contains(t, out, "Products: 5")

	out = mustExecute(t, "analytics", "recent", "--days", "3650")
	assert.Contains(t, out, "Orders (")
	assert.Contains(t, out, "Events (")
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999.99, "999.99"},
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
		{-42, "-42.00"},
		{-0.001, "0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money(tt.in))
	}
}

func TestOptionalMonth(t *testing.T) {
	ym, err := optionalMonth("", "--from")
	require.NoError(t, err)
	assert.Nil(t, ym)

	ym, err = optionalMonth("2024-03", "--from")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", ym.Label())
}
