package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// Summary computes the KPI summary. Revenue, order count, average order
// value, distinct customers and top products ignore cancelled orders;
// OrdersByStatus counts every order. Any failed remote call fails the whole
// summary so no partial metrics are returned. A database whose analytics
// views were never registered gets them registered on first use.
func (s *AnalyticsService) Summary(ctx context.Context, opts domain.SummaryOptions) domain.Result[domain.KPISummary] {
	topN := opts.TopN
	if topN < 0 {
		err := fmt.Errorf("%w: top-N must not be negative, got %d", domain.ErrInvalidInput, topN)
		return domain.Fail[domain.KPISummary](err, "summary failed")
	}
	if topN == 0 {
		topN = domain.DefaultTopN
	}

	orders, err := s.loadOrders(ctx)
	if err != nil {
		return domain.Fail[domain.KPISummary](err, "summary failed")
	}
	categories := s.ProductsByCategory(ctx)
	if categories.Is(domain.ErrNotFound) {
		reg := s.EnsureViews(ctx)
		if !reg.Success {
			return domain.Forward[domain.KPISummary](reg)
		}
		categories = s.ProductsByCategory(ctx)
	}
	if !categories.Success {
		return domain.Forward[domain.KPISummary](categories)
	}

	summary := domain.KPISummary{
		TopProducts:    []domain.ProductRevenue{},
		Categories:     categoryShares(categories.Data.Buckets),
		OrdersByStatus: make(map[string]int),
	}

	customers := make(map[string]struct{})
	var revenue float64
	for _, o := range orders {
		summary.OrdersByStatus[o.Status]++
		if o.IsCancelled() {
			continue
		}
		summary.OrderCount++
		revenue += o.Total()
		if o.CustomerID != "" {
			customers[o.CustomerID] = struct{}{}
		}
	}
	summary.TotalRevenue = domain.RoundTo(revenue, 2)
	summary.DistinctCustomers = len(customers)
	if summary.OrderCount > 0 {
		summary.AverageOrderValue = domain.RoundTo(revenue/float64(summary.OrderCount), 2)
	}

	products := productRevenue(orders)
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Revenue != products[j].Revenue {
			return products[i].Revenue > products[j].Revenue
		}
		return products[i].ProductID < products[j].ProductID
	})
	if len(products) > topN {
		products = products[:topN]
	}
	summary.TopProducts = append(summary.TopProducts, products...)

	return domain.Ok(summary, "%d orders, revenue %.2f", summary.OrderCount, summary.TotalRevenue)
}

// TopProductsByQuantity ranks products by units sold in non-cancelled
// orders, ties broken by ascending product ID.
func (s *AnalyticsService) TopProductsByQuantity(ctx context.Context, limit int) domain.Result[[]domain.ProductRevenue] {
	if limit < 0 {
		err := fmt.Errorf("%w: limit must not be negative, got %d", domain.ErrInvalidInput, limit)
		return domain.Fail[[]domain.ProductRevenue](err, "top products failed")
	}
	if limit == 0 {
		limit = domain.DefaultTopN
	}

	orders, err := s.loadOrders(ctx)
	if err != nil {
		return domain.Fail[[]domain.ProductRevenue](err, "top products failed")
	}

	products := productRevenue(orders)
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Quantity != products[j].Quantity {
			return products[i].Quantity > products[j].Quantity
		}
		return products[i].ProductID < products[j].ProductID
	})
	if len(products) > limit {
		products = products[:limit]
	}
	return domain.Ok(products, "top %d products by quantity", len(products))
}

// productRevenue aggregates line items of non-cancelled orders per product.
func productRevenue(orders []*domain.Order) []domain.ProductRevenue {
	byID := make(map[string]*domain.ProductRevenue)
	var ids []string
	for _, o := range orders {
		if o.IsCancelled() {
			continue
		}
		seen := make(map[string]bool, len(o.Items))
		for _, item := range o.Items {
			pr, ok := byID[item.ProductID]
			if !ok {
				pr = &domain.ProductRevenue{ProductID: item.ProductID}
				byID[item.ProductID] = pr
				ids = append(ids, item.ProductID)
			}
			if pr.ProductName == "" {
				pr.ProductName = item.ProductName
			}
			pr.Revenue = domain.RoundTo(pr.Revenue+item.Subtotal(), 2)
			pr.Quantity += item.Quantity
			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				pr.OrderCount++
			}
		}
	}

	out := make([]domain.ProductRevenue, 0, len(ids))
	for _, id := range ids {
		out = append(out, *byID[id])
	}
	return out
}

// categoryShares converts category counts into percentages with one
// decimal place. Largest-remainder rounding makes non-empty input sum to
// exactly 100.0; remainder ties go to the alphabetically first category.
func categoryShares(buckets []domain.CategoryBucket) []domain.CategoryShare {
	shares := make([]domain.CategoryShare, 0, len(buckets))
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total == 0 {
		for _, b := range buckets {
			shares = append(shares, domain.CategoryShare{Category: b.Category, Count: b.Count})
		}
		return shares
	}

	const units = 1000 // tenths of a percent
	type part struct {
		index     int
		remainder int
	}
	tenths := make([]int, len(buckets))
	parts := make([]part, len(buckets))
	assigned := 0
	for i, b := range buckets {
		exact := b.Count * units
		tenths[i] = exact / total
		parts[i] = part{index: i, remainder: exact % total}
		assigned += tenths[i]
	}

	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].remainder != parts[j].remainder {
			return parts[i].remainder > parts[j].remainder
		}
		return buckets[parts[i].index].Category < buckets[parts[j].index].Category
	})
	for k := 0; k < units-assigned; k++ {
		tenths[parts[k%len(parts)].index]++
	}

	for i, b := range buckets {
		shares = append(shares, domain.CategoryShare{
			Category:   b.Category,
			Count:      b.Count,
			Percentage: math.Round(float64(tenths[i])) / 10,
		})
	}
	return shares
}
