package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/couchlab/internal/core/domain"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// newTestCRUD returns a CRUD service over a fresh memory store with a fixed
// clock and sequential IDs.
func newTestCRUD(t *testing.T) (*CRUDService, *memory.DocumentStore) {
	t.Helper()
	store := memory.NewDocumentStore()
	svc := NewCRUDService(store)
	svc.now = fixedClock
	seq := 0
	svc.newID = func(kind domain.Kind) string {
		seq++
		return fmt.Sprintf("%s%03d", kind.IDPrefix(), seq)
	}
	return svc, store
}

func newTestAnalytics(t *testing.T, store *memory.DocumentStore) *AnalyticsService {
	t.Helper()
	svc := NewAnalyticsService(store, store)
	svc.now = fixedClock
	reg := svc.EnsureViews(context.Background())
	require.True(t, reg.Success, reg.Error)
	return svc
}

func mustProduct(t *testing.T, id, name, category string, price float64) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(name, category, price, 10)
	require.NoError(t, err)
	p.ID = id
	return p
}

func mustCustomer(t *testing.T, id, name string) *domain.Customer {
	t.Helper()
	c, err := domain.NewCustomer(name, name+"@example.com")
	require.NoError(t, err)
	c.ID = id
	return c
}

func mustOrder(t *testing.T, id, customerID, status string, at time.Time, items ...domain.LineItem) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(customerID, items, status)
	require.NoError(t, err)
	o.ID = id
	o.CreatedAt = at
	return o
}

func item(productID string, qty int, price float64) domain.LineItem {
	return domain.LineItem{ProductID: productID, ProductName: "name-" + productID, Quantity: qty, UnitPrice: price}
}

func seed(t *testing.T, crud *CRUDService, docs ...domain.Document) {
	t.Helper()
	res := crud.BulkCreate(context.Background(), docs)
	require.True(t, res.Success, res.Error)
	require.Zero(t, res.Data.ErrorCount, "%+v", res.Data.Results)
}
