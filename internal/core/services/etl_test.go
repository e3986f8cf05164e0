package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/mango"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Coffee Maker Deluxe", CleanText("  Coffee \t Maker\n\r Deluxe  "))
	assert.Equal(t, "", CleanText(" \n "))
}

func TestValidEmail(t *testing.T) {
	tests := map[string]bool{
		"alice@email.com":  true,
		"a.b@sub.email.io": true,
		"no-at-sign.com":   false,
		"two@@email.com":   false,
		"a@b@c.com":        false,
		"user@localhost":   false,
		"@email.com":       false,
		"":                 false,
	}
	for email, want := range tests {
		assert.Equal(t, want, ValidEmail(email), email)
	}
}

func TestPriceCategory(t *testing.T) {
	assert.Equal(t, domain.PriceBudget, PriceCategory(49.99))
	assert.Equal(t, domain.PriceMidRange, PriceCategory(50))
	assert.Equal(t, domain.PriceMidRange, PriceCategory(199.99))
	assert.Equal(t, domain.PricePremium, PriceCategory(200))
}

func TestEnrichProduct(t *testing.T) {
	p, err := domain.NewProduct("LED Desk Lamp", "Home & Kitchen", 35.99, 1)
	require.NoError(t, err)
	p.Description = "Adjustable LED lamp"

	EnrichProduct(p)

	assert.Equal(t, domain.PriceBudget, p.PriceCategory)
	assert.Equal(t, []string{"&", "adjustable", "desk", "home", "kitchen", "lamp", "led"}, p.SearchKeywords)
}

func newTestETL(t *testing.T) (*ETLService, *CRUDService) {
	t.Helper()
	crud, _ := newTestCRUD(t)
	etl := NewETLService(crud)
	etl.now = fixedClock
	seq := 0
	etl.newID = func(kind domain.Kind) string {
		seq++
		return fmt.Sprintf("%s%04d", kind.IDPrefix(), seq)
	}
	return etl, crud
}

func TestETLService_RunAndVerify(t *testing.T) {
	etl, _ := newTestETL(t)
	ctx := context.Background()

	res := etl.Run(ctx, domain.ETLOptions{Orders: 25, Events: 150, Seed: 7})
	require.True(t, res.Success, res.Error)

	assert.Equal(t, domain.ETLReport{
		Products:  5,
		Customers: 3,
		Orders:    25,
		Events:    150,
		Total:     183,
		Inserted:  183,
	}, res.Data)

	verify := etl.Verify(ctx)
	require.True(t, verify.Success, verify.Error)
	assert.Equal(t, []domain.KindCount{
		{Kind: domain.KindProduct, Count: 5},
		{Kind: domain.KindCustomer, Count: 3},
		{Kind: domain.KindOrder, Count: 25},
		{Kind: domain.KindEvent, Count: 150},
	}, verify.Data)
}

func TestETLService_GeneratedOrdersRespectBounds(t *testing.T) {
	etl, crud := newTestETL(t)
	ctx := context.Background()

	require.True(t, etl.Run(ctx, domain.ETLOptions{Orders: 60, Events: 0, Seed: 3}).Success)

	q, err := mango.NewBuilder(domain.KindOrder).Build()
	require.NoError(t, err)
	all := crud.FindAll(ctx, q)
	require.True(t, all.Success)
	require.Len(t, all.Data, 60)

	backdated := 0
	for _, raw := range all.Data {
		doc, err := raw.Decode()
		require.NoError(t, err)
		o := doc.(*domain.Order)

		assert.GreaterOrEqual(t, len(o.Items), 1)
		assert.LessOrEqual(t, len(o.Items), 4)
		for _, it := range o.Items {
			assert.GreaterOrEqual(t, it.Quantity, 1)
			assert.LessOrEqual(t, it.Quantity, 3)
		}
		assert.Contains(t, domain.OrderStatuses, o.Status)

		age := testNow.Sub(o.CreatedAt)
		assert.LessOrEqual(t, age.Hours(), 90*24.0)
		if age > 0 {
			backdated++
		}
		assert.Equal(t, o.Total(), raw["total"])
	}
	assert.Greater(t, backdated, 0)
}

func TestETLService_SeedIsDeterministic(t *testing.T) {
	ctx := context.Background()
	totals := func() []any {
		etl, crud := newTestETL(t)
		require.True(t, etl.Run(ctx, domain.ETLOptions{Orders: 10, Seed: 99}).Success)
		q, err := mango.NewBuilder(domain.KindOrder).Sort("_id", domain.SortAsc).Build()
		require.NoError(t, err)
		var out []any
		for _, raw := range crud.FindAll(ctx, q).Data {
			out = append(out, raw["total"], raw["status"], raw["created_at"])
		}
		return out
	}

	assert.Equal(t, totals(), totals())
}

func TestETLService_NegativeCounts(t *testing.T) {
	etl, _ := newTestETL(t)

	res := etl.Run(context.Background(), domain.ETLOptions{Orders: -1})
	assert.Equal(t, domain.ErrorKindValidation, res.ErrorKind)
}

func TestETLService_StoreFailure(t *testing.T) {
	crud, store := newTestCRUD(t)
	etl := NewETLService(crud)
	store.FailWith(domain.ErrUnavailable)

	res := etl.Run(context.Background(), domain.DefaultETLOptions())
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrorKindConnectivity, res.ErrorKind)
}
