package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/mango"
	"github.com/custodia-labs/couchlab/internal/core/ports/driven"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
	"github.com/custodia-labs/couchlab/internal/logger"
)

// Ensure AnalyticsService implements the interface.
var _ driving.AnalyticsService = (*AnalyticsService)(nil)

// AnalyticsService builds queries, invokes aggregation views and
// summarises KPIs. It keeps no state between calls.
type AnalyticsService struct {
	docs  driven.DocumentStore
	views driven.ViewStore
	now   func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(docs driven.DocumentStore, views driven.ViewStore) *AnalyticsService {
	return &AnalyticsService{
		docs:  docs,
		views: views,
		now:   time.Now,
	}
}

// loadOrders fetches every order matching the extra conditions.
func (s *AnalyticsService) loadOrders(ctx context.Context, conds ...mango.Condition) ([]*domain.Order, error) {
	raws, err := s.load(ctx, domain.KindOrder, conds...)
	if err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(raws))
	for _, raw := range raws {
		if o, ok := decodeAs[*domain.Order](raw); ok {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (s *AnalyticsService) loadProducts(ctx context.Context) ([]*domain.Product, error) {
	raws, err := s.load(ctx, domain.KindProduct)
	if err != nil {
		return nil, err
	}
	products := make([]*domain.Product, 0, len(raws))
	for _, raw := range raws {
		if p, ok := decodeAs[*domain.Product](raw); ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *AnalyticsService) loadCustomers(ctx context.Context) ([]*domain.Customer, error) {
	raws, err := s.load(ctx, domain.KindCustomer)
	if err != nil {
		return nil, err
	}
	customers := make([]*domain.Customer, 0, len(raws))
	for _, raw := range raws {
		if c, ok := decodeAs[*domain.Customer](raw); ok {
			customers = append(customers, c)
		}
	}
	return customers, nil
}

func (s *AnalyticsService) loadEvents(ctx context.Context, conds ...mango.Condition) ([]*domain.Event, error) {
	raws, err := s.load(ctx, domain.KindEvent, conds...)
	if err != nil {
		return nil, err
	}
	events := make([]*domain.Event, 0, len(raws))
	for _, raw := range raws {
		if e, ok := decodeAs[*domain.Event](raw); ok {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *AnalyticsService) load(ctx context.Context, kind domain.Kind, conds ...mango.Condition) ([]domain.RawDoc, error) {
	if s.docs == nil {
		return nil, domain.ErrNotImplemented
	}
	q, err := mango.NewBuilder(kind).Where(conds...).Build()
	if err != nil {
		return nil, err
	}
	return findAll(ctx, s.docs, q)
}

// decodeAs decodes raw into T, skipping documents that do not decode.
func decodeAs[T domain.Document](raw domain.RawDoc) (T, bool) {
	var zero T
	doc, err := raw.Decode()
	if err != nil {
		logger.Debug("analytics: skipping %s: %v", raw.ID(), err)
		return zero, false
	}
	typed, ok := doc.(T)
	return typed, ok
}

// CustomerAnalytics reports per-customer order totals, ranked by spend.
// Cancelled orders are excluded.
func (s *AnalyticsService) CustomerAnalytics(ctx context.Context) domain.Result[domain.CustomerAnalytics] {
	customers, err := s.loadCustomers(ctx)
	if err != nil {
		return domain.Fail[domain.CustomerAnalytics](err, "customer analytics failed")
	}
	orders, err := s.loadOrders(ctx)
	if err != nil {
		return domain.Fail[domain.CustomerAnalytics](err, "customer analytics failed")
	}

	byCustomer := make(map[string]*domain.CustomerStats, len(customers))
	stats := make([]*domain.CustomerStats, 0, len(customers))
	for _, c := range customers {
		cs := &domain.CustomerStats{CustomerID: c.ID, Name: c.Name, Email: c.Email}
		byCustomer[c.ID] = cs
		stats = append(stats, cs)
	}

	counted := 0
	for _, o := range orders {
		if o.IsCancelled() {
			continue
		}
		cs, ok := byCustomer[o.CustomerID]
		if !ok {
			continue
		}
		counted++
		cs.TotalOrders++
		cs.TotalSpent = domain.RoundTo(cs.TotalSpent+o.Total(), 2)
		if at := o.OrderedAt(); cs.LastOrderDate == nil || at.After(*cs.LastOrderDate) {
			cs.LastOrderDate = &at
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalSpent != stats[j].TotalSpent {
			return stats[i].TotalSpent > stats[j].TotalSpent
		}
		return stats[i].CustomerID < stats[j].CustomerID
	})

	out := domain.CustomerAnalytics{
		TotalCustomers: len(customers),
		Customers:      make([]domain.CustomerStats, 0, len(stats)),
	}
	for _, cs := range stats {
		if cs.TotalOrders > 0 {
			out.ActiveCustomers++
		}
		out.Customers = append(out.Customers, *cs)
	}
	if out.TotalCustomers > 0 {
		out.AverageOrdersPerCustomer = domain.RoundTo(float64(counted)/float64(out.TotalCustomers), 2)
	}
	return domain.Ok(out, "%d customers, %d active", out.TotalCustomers, out.ActiveCustomers)
}

// ProductPerformance reports catalogue counts per category and price statistics.
func (s *AnalyticsService) ProductPerformance(ctx context.Context) domain.Result[domain.ProductPerformance] {
	products, err := s.loadProducts(ctx)
	if err != nil {
		return domain.Fail[domain.ProductPerformance](err, "product performance failed")
	}

	out := domain.ProductPerformance{
		TotalProducts: len(products),
		Categories:    make(map[string]int),
	}
	var sum float64
	for i, p := range products {
		out.Categories[p.Category]++
		sum += p.Price
		if i == 0 || p.Price < out.Prices.Min {
			out.Prices.Min = p.Price
		}
		if i == 0 || p.Price > out.Prices.Max {
			out.Prices.Max = p.Price
		}
	}
	if len(products) > 0 {
		out.Prices.Average = domain.RoundTo(sum/float64(len(products)), 2)
	}
	return domain.Ok(out, "%d products in %d categories", out.TotalProducts, len(out.Categories))
}

// RecentActivity lists the orders and events of the trailing days,
// newest first.
func (s *AnalyticsService) RecentActivity(ctx context.Context, days int) domain.Result[domain.RecentActivity] {
	if days <= 0 {
		err := fmt.Errorf("%w: days must be positive, got %d", domain.ErrInvalidInput, days)
		return domain.Fail[domain.RecentActivity](err, "recent activity failed")
	}

	to := s.now().UTC()
	from := to.AddDate(0, 0, -days)

	orders, err := s.loadOrders(ctx, mango.Range("created_at", from, to))
	if err != nil {
		return domain.Fail[domain.RecentActivity](err, "recent activity failed")
	}
	events, err := s.loadEvents(ctx, mango.Range("timestamp", from, to))
	if err != nil {
		return domain.Fail[domain.RecentActivity](err, "recent activity failed")
	}

	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })

	out := domain.RecentActivity{
		PeriodDays:  days,
		From:        from.Format(time.RFC3339),
		To:          to.Format(time.RFC3339),
		TotalOrders: len(orders),
		TotalEvents: len(events),
		Orders:      orders,
		Events:      events,
	}
	return domain.Ok(out, "%d orders and %d events in the last %d days", len(orders), len(events), days)
}
