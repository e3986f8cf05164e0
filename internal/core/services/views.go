package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/logger"
)

// salesByMonthMap keys orders by [year, month] parsed from created_at.
const salesByMonthMap = `function(doc) {
  if (doc.type === 'order' && doc.created_at) {
    var year = parseInt(doc.created_at.substring(0, 4), 10);
    var month = parseInt(doc.created_at.substring(5, 7), 10);
    emit([year, month], {total: doc.total || 0, count: 1, status: doc.status});
  }
}`

const salesByMonthReduce = `function(keys, values, rereduce) {
  var r = {total: 0, count: 0, delivered: 0, pending: 0, cancelled: 0};
  values.forEach(function(v) {
    r.total += v.total || 0;
    r.count += v.count || 0;
    if (rereduce) {
      r.delivered += v.delivered || 0;
      r.pending += v.pending || 0;
      r.cancelled += v.cancelled || 0;
    } else if (v.status === 'delivered' || v.status === 'pending' || v.status === 'cancelled') {
      r[v.status] += 1;
    }
  });
  r.total = Math.round(r.total * 100) / 100;
  return r;
}`

const productsByCategoryMap = `function(doc) {
  if (doc.type === 'product' && doc.category) {
    emit(doc.category, {count: 1, total_value: doc.price || 0});
  }
}`

const productsByCategoryReduce = `function(keys, values, rereduce) {
  var r = {count: 0, total_value: 0, avg_price: 0};
  values.forEach(function(v) {
    r.count += v.count || 0;
    r.total_value += v.total_value || 0;
  });
  if (r.count > 0) {
    r.avg_price = Math.round(r.total_value / r.count * 100) / 100;
  }
  r.total_value = Math.round(r.total_value * 100) / 100;
  return r;
}`

// AnalyticsDesignDoc returns the analytics design document definition.
func AnalyticsDesignDoc() *domain.DesignDoc {
	return &domain.DesignDoc{
		ID:       domain.DesignID(domain.AnalyticsDesign),
		Language: "javascript",
		Views: map[string]domain.ViewSource{
			domain.ViewSalesByMonth: {
				Map:    salesByMonthMap,
				Reduce: salesByMonthReduce,
			},
			domain.ViewProductsByCategory: {
				Map:    productsByCategoryMap,
				Reduce: productsByCategoryReduce,
			},
		},
	}
}

// EnsureViews registers the analytics design document. Identical stored
// definitions are left alone; changed or missing ones are written with the
// current revision. Each view's index build is started and its sequence
// compared with the database's; the result is reported, never waited for.
func (s *AnalyticsService) EnsureViews(ctx context.Context) domain.Result[domain.ViewRegistration] {
	if s.views == nil {
		return domain.Fail[domain.ViewRegistration](domain.ErrNotImplemented, "view store not configured")
	}

	want := AnalyticsDesignDoc()
	reg := domain.ViewRegistration{Design: want.ID, Views: viewNames(want)}

	current, err := s.views.GetDesign(ctx, want.ID)
	switch {
	case err == nil:
		if sameViews(current, want) {
			reg.Ready = true
			logger.Debug("views: %s unchanged", want.ID)
			return domain.Ok(reg, "views already registered")
		}
		want.Rev = current.Rev
	case errors.Is(err, domain.ErrNotFound):
	default:
		return domain.Fail[domain.ViewRegistration](err, "read %s failed", want.ID)
	}

	if _, err := s.views.PutDesign(ctx, want); err != nil {
		return domain.Fail[domain.ViewRegistration](err, "write %s failed", want.ID)
	}
	reg.Changed = true

	reg.Ready = true
	for _, view := range reg.Views {
		state, err := s.views.IndexState(ctx, domain.AnalyticsDesign, view)
		if err != nil {
			return domain.Fail[domain.ViewRegistration](err, "read %s index state failed", want.ID)
		}
		if !state.CaughtUp() {
			logger.Debug("views: %s/%s at seq %d of %d", want.ID, view, state.IndexSeq, state.DBSeq)
			reg.Ready = false
		}
	}
	if !reg.Ready {
		return domain.Ok(reg, "views registered, index not yet ready")
	}
	return domain.Ok(reg, "views registered")
}

func sameViews(a, b *domain.DesignDoc) bool {
	la, lb := a.Language, b.Language
	if la == "" {
		la = "javascript"
	}
	if lb == "" {
		lb = "javascript"
	}
	return la == lb && reflect.DeepEqual(a.Views, b.Views)
}

func viewNames(ddoc *domain.DesignDoc) []string {
	names := make([]string, 0, len(ddoc.Views))
	for name := range ddoc.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SalesByMonth queries the sales view grouped by [year, month], optionally
// restricted to the inclusive month range [from, to]. Buckets keep the
// store's key order.
func (s *AnalyticsService) SalesByMonth(ctx context.Context, from, to *domain.YearMonth) domain.Result[domain.SalesByMonth] {
	if s.views == nil {
		return domain.Fail[domain.SalesByMonth](domain.ErrNotImplemented, "view store not configured")
	}

	q := domain.ViewQuery{Group: true}
	if from != nil {
		if err := from.Validate(); err != nil {
			return domain.Fail[domain.SalesByMonth](err, "sales by month failed")
		}
		q.StartKey = from.Key()
	}
	if to != nil {
		if err := to.Validate(); err != nil {
			return domain.Fail[domain.SalesByMonth](err, "sales by month failed")
		}
		q.EndKey = to.Key()
	}
	if from != nil && to != nil && to.Before(*from) {
		err := fmt.Errorf("%w: range start %s is after end %s", domain.ErrInvalidInput, from.Label(), to.Label())
		return domain.Fail[domain.SalesByMonth](err, "sales by month failed")
	}

	res, err := s.views.QueryView(ctx, domain.AnalyticsDesign, domain.ViewSalesByMonth, q)
	if err != nil {
		return domain.Fail[domain.SalesByMonth](err, "sales by month failed")
	}

	out := domain.SalesByMonth{
		Buckets: make([]domain.SalesBucket, 0, len(res.Rows)),
		Revenue: make(map[string]float64, len(res.Rows)),
		Orders:  make(map[string]int, len(res.Rows)),
	}
	for _, row := range res.Rows {
		period, err := periodOf(row.Key)
		if err != nil {
			return domain.Fail[domain.SalesByMonth](err, "sales by month failed")
		}
		value := asObject(row.Value)
		bucket := domain.SalesBucket{
			Period:     period,
			Label:      period.Label(),
			OrderCount: int(numberOf(value["count"])),
			Revenue:    domain.RoundTo(numberOf(value["total"]), 2),
			StatusCounts: map[string]int{
				domain.StatusDelivered: int(numberOf(value[domain.StatusDelivered])),
				domain.StatusPending:   int(numberOf(value[domain.StatusPending])),
				domain.StatusCancelled: int(numberOf(value[domain.StatusCancelled])),
			},
		}
		out.Buckets = append(out.Buckets, bucket)
		out.Revenue[bucket.Label] = bucket.Revenue
		out.Orders[bucket.Label] = bucket.OrderCount
	}
	return domain.Ok(out, "%d months", len(out.Buckets))
}

// ProductsByCategory queries the category view grouped by category.
func (s *AnalyticsService) ProductsByCategory(ctx context.Context) domain.Result[domain.ProductsByCategory] {
	if s.views == nil {
		return domain.Fail[domain.ProductsByCategory](domain.ErrNotImplemented, "view store not configured")
	}

	res, err := s.views.QueryView(ctx, domain.AnalyticsDesign, domain.ViewProductsByCategory, domain.ViewQuery{Group: true})
	if err != nil {
		return domain.Fail[domain.ProductsByCategory](err, "products by category failed")
	}

	out := domain.ProductsByCategory{
		Buckets: make([]domain.CategoryBucket, 0, len(res.Rows)),
		Counts:  make(map[string]int, len(res.Rows)),
	}
	for _, row := range res.Rows {
		category, ok := row.Key.(string)
		if !ok {
			err := fmt.Errorf("%w: category key %v is not a string", domain.ErrInvalidInput, row.Key)
			return domain.Fail[domain.ProductsByCategory](err, "products by category failed")
		}
		value := asObject(row.Value)
		bucket := domain.CategoryBucket{
			Category:   category,
			Count:      int(numberOf(value["count"])),
			TotalValue: domain.RoundTo(numberOf(value["total_value"]), 2),
			AvgPrice:   domain.RoundTo(numberOf(value["avg_price"]), 2),
		}
		out.Buckets = append(out.Buckets, bucket)
		out.Counts[category] = bucket.Count
	}
	return domain.Ok(out, "%d categories", len(out.Buckets))
}

// periodOf decodes a [year, month] view key.
func periodOf(key any) (domain.YearMonth, error) {
	parts, ok := key.([]any)
	if !ok || len(parts) != 2 {
		return domain.YearMonth{}, fmt.Errorf("%w: sales key %v is not [year, month]", domain.ErrInvalidInput, key)
	}
	ym := domain.YearMonth{Year: int(numberOf(parts[0])), Month: int(numberOf(parts[1]))}
	if err := ym.Validate(); err != nil {
		return domain.YearMonth{}, err
	}
	return ym, nil
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func numberOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
