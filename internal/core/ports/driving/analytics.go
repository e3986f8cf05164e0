package driving

import (
	"context"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// AnalyticsService runs aggregation views and KPI summaries.
type AnalyticsService interface {
	// EnsureViews registers the analytics design document. Registering
	// identical definitions is a no-op.
	EnsureViews(ctx context.Context) domain.Result[domain.ViewRegistration]

	// SalesByMonth returns per-month order count and revenue, optionally
	// restricted to the inclusive range [from, to].
	SalesByMonth(ctx context.Context, from, to *domain.YearMonth) domain.Result[domain.SalesByMonth]

	// ProductsByCategory returns product count and value per category.
	ProductsByCategory(ctx context.Context) domain.Result[domain.ProductsByCategory]

	// Summary computes the KPI summary.
	Summary(ctx context.Context, opts domain.SummaryOptions) domain.Result[domain.KPISummary]

	// TopProductsByQuantity ranks products by units sold.
	TopProductsByQuantity(ctx context.Context, limit int) domain.Result[[]domain.ProductRevenue]

	// CustomerAnalytics summarises customer activity.
	CustomerAnalytics(ctx context.Context) domain.Result[domain.CustomerAnalytics]

	// ProductPerformance summarises the catalogue.
	ProductPerformance(ctx context.Context) domain.Result[domain.ProductPerformance]

	// RecentActivity lists orders and events of the last days.
	RecentActivity(ctx context.Context, days int) domain.Result[domain.RecentActivity]
}
