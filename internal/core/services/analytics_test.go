package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/couchlab/internal/core/domain"
)

func TestAnalyticsService_EnsureViewsIsIdempotent(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := NewAnalyticsService(store, store)
	ctx := context.Background()

	first := svc.EnsureViews(ctx)
	require.True(t, first.Success, first.Error)
	assert.True(t, first.Data.Changed)
	assert.True(t, first.Data.Ready)
	assert.Equal(t, []string{domain.ViewProductsByCategory, domain.ViewSalesByMonth}, first.Data.Views)

	second := svc.EnsureViews(ctx)
	require.True(t, second.Success, second.Error)
	assert.False(t, second.Data.Changed)
	assert.Equal(t, 1, store.DesignWrites())
}

func TestAnalyticsService_EnsureViewsRewritesChangedDefinition(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := NewAnalyticsService(store, store)
	ctx := context.Background()

	old := AnalyticsDesignDoc()
	old.Views[domain.ViewSalesByMonth] = domain.ViewSource{Map: "function(doc) {}"}
	_, err := store.PutDesign(ctx, old)
	require.NoError(t, err)

	store.SetIndexing(domain.AnalyticsDesign, true)
	res := svc.EnsureViews(ctx)
	require.True(t, res.Success, res.Error)
	assert.True(t, res.Data.Changed)
	assert.False(t, res.Data.Ready)
	assert.Contains(t, res.Message, "not yet ready")
	assert.Equal(t, 2, store.DesignWrites())

	stored, err := store.GetDesign(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, AnalyticsDesignDoc().Views, stored.Views)
}

func TestAnalyticsService_SalesByMonthKeyOrder(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)
	ctx := context.Background()

	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2023, 12, 5, 0, 0, 0, 0, time.UTC)
	seed(t, crud,
		mustOrder(t, "order_a", "customer_1", domain.StatusDelivered, feb, item("p1", 1, 100)),
		mustOrder(t, "order_b", "customer_1", domain.StatusPending, jan, item("p1", 2, 10)),
		mustOrder(t, "order_c", "customer_2", domain.StatusCancelled, jan, item("p2", 1, 5)),
		mustOrder(t, "order_d", "customer_2", domain.StatusDelivered, dec, item("p2", 1, 7)),
	)

	res := svc.SalesByMonth(ctx, nil, nil)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data.Buckets, 3)

	labels := []string{res.Data.Buckets[0].Label, res.Data.Buckets[1].Label, res.Data.Buckets[2].Label}
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-02"}, labels)

	janBucket := res.Data.Buckets[1]
	assert.Equal(t, domain.YearMonth{Year: 2024, Month: 1}, janBucket.Period)
	assert.Equal(t, 2, janBucket.OrderCount)
	assert.Equal(t, 25.0, janBucket.Revenue)
	assert.Equal(t, 1, janBucket.StatusCounts[domain.StatusCancelled])
	assert.Equal(t, 1, janBucket.StatusCounts[domain.StatusPending])

	assert.Equal(t, 100.0, res.Data.Revenue["2024-02"])
	assert.Equal(t, 1, res.Data.Orders["2023-12"])
}

func TestAnalyticsService_SalesByMonthRange(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)
	ctx := context.Background()

	for i, month := range []time.Month{1, 2, 3, 11} {
		at := time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC)
		seed(t, crud, mustOrder(t, "order_"+string(rune('a'+i)), "customer_1", "", at, item("p1", 1, 1)))
	}

	from := domain.YearMonth{Year: 2024, Month: 1}
	to := domain.YearMonth{Year: 2024, Month: 2}
	res := svc.SalesByMonth(ctx, &from, &to)
	require.True(t, res.Success, res.Error)

	require.Len(t, res.Data.Buckets, 2)
	assert.Equal(t, "2024-01", res.Data.Buckets[0].Label)
	assert.Equal(t, "2024-02", res.Data.Buckets[1].Label)
}

func TestAnalyticsService_SalesByMonthInvalidRange(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := newTestAnalytics(t, store)

	from := domain.YearMonth{Year: 2024, Month: 5}
	to := domain.YearMonth{Year: 2024, Month: 1}
	res := svc.SalesByMonth(context.Background(), &from, &to)
	assert.Equal(t, domain.ErrorKindValidation, res.ErrorKind)

	bad := domain.YearMonth{Year: 2024, Month: 13}
	res = svc.SalesByMonth(context.Background(), &bad, nil)
	assert.Equal(t, domain.ErrorKindValidation, res.ErrorKind)
}

func TestAnalyticsService_ViewsMissing(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := NewAnalyticsService(store, store)

	res := svc.ProductsByCategory(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrorKindNotFound, res.ErrorKind)
}

func TestAnalyticsService_ProductsByCategory(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)

	seed(t, crud,
		mustProduct(t, "product_1", "A", "Books", 10),
		mustProduct(t, "product_2", "B", "Books", 20),
		mustProduct(t, "product_3", "C", "Games", 7.5),
	)

	res := svc.ProductsByCategory(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, map[string]int{"Books": 2, "Games": 1}, res.Data.Counts)
	assert.Equal(t, domain.CategoryBucket{Category: "Books", Count: 2, TotalValue: 30, AvgPrice: 15}, res.Data.Buckets[0])
}

func TestAnalyticsService_SummaryEmptyDataset(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := newTestAnalytics(t, store)

	res := svc.Summary(context.Background(), domain.SummaryOptions{})
	require.True(t, res.Success, res.Error)

	assert.Zero(t, res.Data.TotalRevenue)
	assert.Zero(t, res.Data.OrderCount)
	assert.Zero(t, res.Data.AverageOrderValue)
	assert.Zero(t, res.Data.DistinctCustomers)
	assert.Empty(t, res.Data.TopProducts)
	assert.Empty(t, res.Data.Categories)
}

func TestAnalyticsService_SummaryRegistersMissingViews(t *testing.T) {
	store := memory.NewDocumentStore()
	svc := NewAnalyticsService(store, store)

	res := svc.Summary(context.Background(), domain.SummaryOptions{})
	require.True(t, res.Success, res.Error)
	assert.Zero(t, res.Data.OrderCount)
	assert.Empty(t, res.Data.Categories)

	_, err := store.GetDesign(context.Background(), domain.DesignID(domain.AnalyticsDesign))
	assert.NoError(t, err)
}

// Totals 10, 20 (cancelled) and 30 give revenue 40, two orders, average 20.
func TestAnalyticsService_SummaryExcludesCancelled(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)

	seed(t, crud,
		mustOrder(t, "order_1", "customer_1", domain.StatusDelivered, testNow, item("p1", 1, 10)),
		mustOrder(t, "order_2", "customer_2", domain.StatusCancelled, testNow, item("p2", 1, 20)),
		mustOrder(t, "order_3", "customer_1", domain.StatusShipped, testNow, item("p3", 1, 30)),
	)

	res := svc.Summary(context.Background(), domain.SummaryOptions{})
	require.True(t, res.Success, res.Error)

	assert.Equal(t, 40.0, res.Data.TotalRevenue)
	assert.Equal(t, 2, res.Data.OrderCount)
	assert.Equal(t, 20.0, res.Data.AverageOrderValue)
	assert.Equal(t, 1, res.Data.DistinctCustomers)
	assert.Equal(t, 1, res.Data.OrdersByStatus[domain.StatusCancelled])
	assert.Equal(t, map[string]float64{
		"total_revenue":       40,
		"order_count":         2,
		"average_order_value": 20,
		"distinct_customers":  1,
	}, res.Data.Metrics())
}

func TestAnalyticsService_SummaryTopProductsTieBreak(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)

	seed(t, crud,
		mustOrder(t, "order_1", "customer_1", "", testNow, item("product_c", 1, 50), item("product_b", 2, 25)),
		mustOrder(t, "order_2", "customer_1", "", testNow, item("product_a", 5, 10), item("product_d", 1, 5)),
	)

	res := svc.Summary(context.Background(), domain.SummaryOptions{TopN: 2})
	require.True(t, res.Success, res.Error)

	require.Len(t, res.Data.TopProducts, 2)
	assert.Equal(t, "product_a", res.Data.TopProducts[0].ProductID)
	assert.Equal(t, "product_b", res.Data.TopProducts[1].ProductID)
	assert.Equal(t, 50.0, res.Data.TopProducts[1].Revenue)
	assert.Equal(t, 2, res.Data.TopProducts[1].Quantity)
}

func TestAnalyticsService_SummaryCategoryPercentages(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)

	seed(t, crud,
		mustProduct(t, "product_1", "A", "Books", 1),
		mustProduct(t, "product_2", "B", "Games", 1),
		mustProduct(t, "product_3", "C", "Music", 1),
	)

	res := svc.Summary(context.Background(), domain.SummaryOptions{})
	require.True(t, res.Success, res.Error)

	require.Len(t, res.Data.Categories, 3)
	assert.Equal(t, 33.4, res.Data.Categories[0].Percentage)
	assert.Equal(t, 33.3, res.Data.Categories[1].Percentage)
	assert.Equal(t, 33.3, res.Data.Categories[2].Percentage)
}

func TestCategoryShares_SumToHundred(t *testing.T) {
	cases := [][]int{
		{1, 1, 1},
		{1, 2},
		{7, 3, 3, 1, 1},
		{1, 1, 1, 1, 1, 1},
		{999, 1},
		{5},
	}
	for _, counts := range cases {
		buckets := make([]domain.CategoryBucket, len(counts))
		for i, c := range counts {
			buckets[i] = domain.CategoryBucket{Category: string(rune('A' + i)), Count: c}
		}

		var tenths float64
		for _, share := range categoryShares(buckets) {
			tenths += share.Percentage * 10
		}
		assert.Equal(t, 1000.0, math.Round(tenths), "counts %v", counts)
	}
}

func TestCategoryShares_Empty(t *testing.T) {
	assert.Empty(t, categoryShares(nil))
}

func TestAnalyticsService_SummaryFailureHasNoPartialData(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)
	seed(t, crud, mustOrder(t, "order_1", "customer_1", "", testNow, item("p1", 1, 10)))

	store.FailWith(domain.ErrUnavailable)
	res := svc.Summary(context.Background(), domain.SummaryOptions{})

	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrorKindConnectivity, res.ErrorKind)
	assert.Zero(t, res.Data.OrderCount)
	assert.Nil(t, res.Data.TopProducts)
}

func TestAnalyticsService_SummaryNegativeTopN(t *testing.T) {
	svc := newTestAnalytics(t, memory.NewDocumentStore())

	res := svc.Summary(context.Background(), domain.SummaryOptions{TopN: -1})
	assert.Equal(t, domain.ErrorKindValidation, res.ErrorKind)
}

func TestAnalyticsService_TopProductsByQuantity(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)

	seed(t, crud,
		mustOrder(t, "order_1", "customer_1", "", testNow, item("product_b", 3, 1), item("product_a", 3, 1)),
		mustOrder(t, "order_2", "customer_1", domain.StatusCancelled, testNow, item("product_c", 10, 1)),
		mustOrder(t, "order_3", "customer_1", "", testNow, item("product_c", 1, 100)),
	)

	res := svc.TopProductsByQuantity(context.Background(), 0)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data, 3)
	assert.Equal(t, []string{"product_a", "product_b", "product_c"},
		[]string{res.Data[0].ProductID, res.Data[1].ProductID, res.Data[2].ProductID})
}

func TestAnalyticsService_CustomerAnalytics(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)

	early := testNow.AddDate(0, 0, -10)
	seed(t, crud,
		mustCustomer(t, "customer_1", "Ann"),
		mustCustomer(t, "customer_2", "Bob"),
		mustCustomer(t, "customer_3", "Cid"),
		mustOrder(t, "order_1", "customer_1", "", early, item("p1", 1, 10)),
		mustOrder(t, "order_2", "customer_1", "", testNow, item("p1", 1, 15)),
		mustOrder(t, "order_3", "customer_2", "", testNow, item("p1", 1, 40)),
		mustOrder(t, "order_4", "customer_3", domain.StatusCancelled, testNow, item("p1", 1, 99)),
	)

	res := svc.CustomerAnalytics(context.Background())
	require.True(t, res.Success, res.Error)

	assert.Equal(t, 3, res.Data.TotalCustomers)
	assert.Equal(t, 2, res.Data.ActiveCustomers)
	assert.Equal(t, 1.0, res.Data.AverageOrdersPerCustomer)
	require.Len(t, res.Data.Customers, 3)
	assert.Equal(t, "customer_2", res.Data.Customers[0].CustomerID)
	assert.Equal(t, 25.0, res.Data.Customers[1].TotalSpent)
	require.NotNil(t, res.Data.Customers[1].LastOrderDate)
	assert.True(t, res.Data.Customers[1].LastOrderDate.Equal(testNow))
	assert.Nil(t, res.Data.Customers[2].LastOrderDate)
}

func TestAnalyticsService_ProductPerformance(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)

	seed(t, crud,
		mustProduct(t, "product_1", "A", "Books", 10),
		mustProduct(t, "product_2", "B", "Books", 30),
		mustProduct(t, "product_3", "C", "Games", 5),
	)

	res := svc.ProductPerformance(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 3, res.Data.TotalProducts)
	assert.Equal(t, map[string]int{"Books": 2, "Games": 1}, res.Data.Categories)
	assert.Equal(t, domain.PriceStats{Min: 5, Max: 30, Average: 15}, res.Data.Prices)
}

func TestAnalyticsService_RecentActivity(t *testing.T) {
	crud, store := newTestCRUD(t)
	svc := newTestAnalytics(t, store)

	old := testNow.AddDate(0, 0, -30)
	recent := testNow.AddDate(0, 0, -2)
	ev, err := domain.NewEvent("search", "product_1", domain.KindProduct, nil)
	require.NoError(t, err)
	ev.ID = "event_1"
	ev.Timestamp = recent

	seed(t, crud,
		mustOrder(t, "order_old", "customer_1", "", old, item("p1", 1, 1)),
		mustOrder(t, "order_new", "customer_1", "", recent, item("p1", 1, 1)),
		ev,
	)

	res := svc.RecentActivity(context.Background(), 7)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.Data.TotalOrders)
	assert.Equal(t, "order_new", res.Data.Orders[0].ID)
	assert.Equal(t, 1, res.Data.TotalEvents)

	assert.Equal(t, domain.ErrorKindValidation, svc.RecentActivity(context.Background(), 0).ErrorKind)
}
