package mcp

import (
	"context"
	"errors"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

var errBoom = errors.New("boom")

// mockAnalyticsService is a mock implementation of driving.AnalyticsService.
// A non-nil err makes every call return a failed envelope.
type mockAnalyticsService struct {
	summary    domain.KPISummary
	sales      domain.SalesByMonth
	categories domain.ProductsByCategory
	top        []domain.ProductRevenue
	customers  domain.CustomerAnalytics
	products   domain.ProductPerformance
	recent     domain.RecentActivity
	err        error

	lastTopN  int
	lastFrom  *domain.YearMonth
	lastTo    *domain.YearMonth
	lastLimit int
	lastDays  int
}

func result[T any](data T, err error) domain.Result[T] {
	if err != nil {
		return domain.Fail[T](err, "mock failure")
	}
	return domain.Ok(data, "ok")
}

func (m *mockAnalyticsService) EnsureViews(_ context.Context) domain.Result[domain.ViewRegistration] {
	return result(domain.ViewRegistration{Design: domain.DesignID(domain.AnalyticsDesign), Ready: true}, m.err)
}

func (m *mockAnalyticsService) SalesByMonth(_ context.Context, from, to *domain.YearMonth) domain.Result[domain.SalesByMonth] {
	m.lastFrom, m.lastTo = from, to
	return result(m.sales, m.err)
}

func (m *mockAnalyticsService) ProductsByCategory(_ context.Context) domain.Result[domain.ProductsByCategory] {
	return result(m.categories, m.err)
}

func (m *mockAnalyticsService) Summary(_ context.Context, opts domain.SummaryOptions) domain.Result[domain.KPISummary] {
	m.lastTopN = opts.TopN
	return result(m.summary, m.err)
}

func (m *mockAnalyticsService) TopProductsByQuantity(_ context.Context, limit int) domain.Result[[]domain.ProductRevenue] {
	m.lastLimit = limit
	return result(m.top, m.err)
}

func (m *mockAnalyticsService) CustomerAnalytics(_ context.Context) domain.Result[domain.CustomerAnalytics] {
	return result(m.customers, m.err)
}

func (m *mockAnalyticsService) ProductPerformance(_ context.Context) domain.Result[domain.ProductPerformance] {
	return result(m.products, m.err)
}

func (m *mockAnalyticsService) RecentActivity(_ context.Context, days int) domain.Result[domain.RecentActivity] {
	m.lastDays = days
	return result(m.recent, m.err)
}

// mockCRUDService is a mock implementation of driving.CRUDService.
type mockCRUDService struct {
	docs      map[string]domain.RawDoc
	page      domain.FindResult
	info      domain.DatabaseInfo
	err       error
	lastQuery domain.Query
}

func (m *mockCRUDService) Create(_ context.Context, _ domain.Document) domain.Result[domain.WriteResult] {
	return result(domain.WriteResult{}, m.err)
}

func (m *mockCRUDService) Get(_ context.Context, id string) domain.Result[domain.Document] {
	raw := m.GetRaw(context.Background(), id)
	if !raw.Success {
		return domain.Forward[domain.Document](raw)
	}
	doc, err := raw.Data.Decode()
	return result(doc, err)
}

func (m *mockCRUDService) GetRaw(_ context.Context, id string) domain.Result[domain.RawDoc] {
	if m.err != nil {
		return result[domain.RawDoc](nil, m.err)
	}
	doc, ok := m.docs[id]
	if !ok {
		return domain.Fail[domain.RawDoc](domain.ErrNotFound, "document %s not found", id)
	}
	return domain.Ok(doc, "found")
}

func (m *mockCRUDService) Update(_ context.Context, _, _ string, _ map[string]any) domain.Result[domain.WriteResult] {
	return result(domain.WriteResult{}, m.err)
}

func (m *mockCRUDService) Replace(_ context.Context, _ domain.Document) domain.Result[domain.WriteResult] {
	return result(domain.WriteResult{}, m.err)
}

func (m *mockCRUDService) Delete(_ context.Context, _, _ string, _ bool) domain.Result[domain.WriteResult] {
	return result(domain.WriteResult{}, m.err)
}

func (m *mockCRUDService) Find(_ context.Context, q domain.Query) domain.Result[domain.FindResult] {
	m.lastQuery = q
	return result(m.page, m.err)
}

func (m *mockCRUDService) FindAll(_ context.Context, _ domain.Query) domain.Result[[]domain.RawDoc] {
	return result(m.page.Docs, m.err)
}

func (m *mockCRUDService) BulkCreate(_ context.Context, _ []domain.Document) domain.Result[domain.BulkResult] {
	return result(domain.BulkResult{}, m.err)
}

func (m *mockCRUDService) Info(_ context.Context) domain.Result[domain.DatabaseInfo] {
	return result(m.info, m.err)
}
