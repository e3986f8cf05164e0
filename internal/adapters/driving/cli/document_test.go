package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

func decodeEnvelope[T any](t *testing.T, out string) domain.Result[T] {
	t.Helper()
	var r domain.Result[T]
	require.NoError(t, json.Unmarshal([]byte(out), &r), out)
	return r
}

func createProduct(t *testing.T, data string) domain.WriteResult {
	t.Helper()
	out := mustExecute(t, "--json", "doc", "create", "product", "--data", data)
	r := decodeEnvelope[domain.WriteResult](t, out)
	require.True(t, r.Success, r.Error)
	jsonOutput = false
	docData = ""
	return r.Data
}

func TestDocumentCmd_CreateGetFind(t *testing.T) {
	setupTestServices(t)

	w := createProduct(t, `{"name":"Laptop","category":"Electronics","price":999.99,"stock":3}`)
	assert.Contains(t, w.ID, "product_")
	createProduct(t, `{"name":"Mouse","category":"Electronics","price":19.5,"stock":40}`)
	createProduct(t, `{"name":"Desk","category":"Furniture","price":250,"stock":2}`)

	out := mustExecute(t, "doc", "get", w.ID)
	assert.Contains(t, out, `"name": "Laptop"`)

	out = mustExecute(t, "doc", "find", "products", "category=Electronics")
	assert.Contains(t, out, "Laptop")
	assert.Contains(t, out, "Mouse")
	assert.NotContains(t, out, "Desk")
	assert.Contains(t, out, "Total: 2 products")

	out = mustExecute(t, "doc", "find", "product", "price>=100", "--sort", "price:desc", "--all")
	assert.Contains(t, out, "Total: 2 products")
	assert.Less(t, strings.Index(out, "Laptop"), strings.Index(out, "Desk"))
}

func TestDocumentCmd_CreateInvalid(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "doc", "create", "product", "--data", `{"category":"Electronics","price":1}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "doc", "create", "--data", `not json`)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentCmd_CreateFromStdin(t *testing.T) {
	setupTestServices(t)

	out, err := executeWithInput(t, `{"type":"customer","name":"Ana","email":"ana@example.com"}`,
		"doc", "create", "-f", "-")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Created customer_")
}

func TestDocumentCmd_UpdateAndDelete(t *testing.T) {
	setupTestServices(t)
	w := createProduct(t, `{"name":"Laptop","category":"Electronics","price":999.99,"stock":3}`)

	_, err := execute(t, "doc", "update", w.ID, "--set", "stock=5")
	assert.EqualError(t, err, "--rev is required")

	out := mustExecute(t, "--json", "doc", "update", w.ID, "--rev", w.Rev, "--set", "stock=5", "--set", "status=sale")
	updated := decodeEnvelope[domain.WriteResult](t, out)
	require.True(t, updated.Success, updated.Error)
	assert.NotEqual(t, w.Rev, updated.Data.Rev)
	resetFlags()

	out = mustExecute(t, "doc", "get", w.ID)
	assert.Contains(t, out, `"stock": 5`)
	assert.Contains(t, out, `"status": "sale"`)

	// A stale revision conflicts.
	_, err = execute(t, "doc", "delete", w.ID, "--rev", w.Rev)
	assert.ErrorIs(t, err, domain.ErrConflict)

	out = mustExecute(t, "doc", "delete", w.ID, "--rev", updated.Data.Rev)
	assert.Contains(t, out, "Deleted "+w.ID)

	_, err = execute(t, "doc", "get", w.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentCmd_SoftDelete(t *testing.T) {
	setupTestServices(t)
	w := createProduct(t, `{"name":"Laptop","category":"Electronics","price":999.99,"stock":3}`)

	out := mustExecute(t, "doc", "delete", w.ID, "--rev", w.Rev, "--soft")
	assert.Contains(t, out, "Marked "+w.ID+" deleted")
}

func TestDocumentCmd_FindEmptyAndBadFilter(t *testing.T) {
	setupTestServices(t)

	out := mustExecute(t, "doc", "find", "orders")
	assert.Contains(t, out, "No orders found")

	_, err := execute(t, "doc", "find", "widgets")
	assert.Error(t, err)
}

func TestDocumentCmd_Info(t *testing.T) {
	setupTestServices(t)
	createProduct(t, `{"name":"Laptop","category":"Electronics","price":999.99,"stock":3}`)

	out := mustExecute(t, "doc", "info")
	assert.Contains(t, out, "Documents:         1")
}

func TestDocumentCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	SetServices(Services{})

	_, err := execute(t, "doc", "info")
	assert.EqualError(t, err, "document service not configured")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, float64(5), parseValue("5"))
	assert.Equal(t, true, parseValue("true"))
	assert.Nil(t, parseValue("null"))
	assert.Equal(t, "shipped", parseValue("shipped"))
	assert.Equal(t, []any{"a"}, parseValue(`["a"]`))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "Ana  <ana@example.com>",
		summarize(domain.RawDoc{"type": "customer", "name": "Ana", "email": "ana@example.com"}))
	assert.Equal(t, "customer_1  pending  10.5",
		summarize(domain.RawDoc{"type": "order", "customer_id": "customer_1", "status": "pending", "total": 10.5}))
	assert.Empty(t, summarize(domain.RawDoc{"type": "widget"}))
}
