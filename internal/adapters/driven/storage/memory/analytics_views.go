package memory

import (
	"math"
	"strconv"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// AnalyticsViews returns Go implementations of the analytics design
// document's views, keyed by view name. They follow the JavaScript
// definitions row for row.
func AnalyticsViews() map[string]View {
	return map[string]View{
		domain.ViewSalesByMonth: {
			Map:    salesByMonthMap,
			Reduce: salesByMonthReduce,
		},
		domain.ViewProductsByCategory: {
			Map:    productsByCategoryMap,
			Reduce: productsByCategoryReduce,
		},
	}
}

func salesByMonthMap(doc domain.RawDoc, emit func(key, value any)) {
	if doc.Kind() != domain.KindOrder {
		return
	}
	created, _ := doc["created_at"].(string)
	if len(created) < 7 {
		return
	}
	year, err1 := strconv.Atoi(created[0:4])
	month, err2 := strconv.Atoi(created[5:7])
	if err1 != nil || err2 != nil {
		return
	}
	emit([]any{year, month}, map[string]any{
		"total":  number(doc["total"]),
		"count":  1.0,
		"status": doc["status"],
	})
}

func salesByMonthReduce(values []any) any {
	out := map[string]any{"total": 0.0, "count": 0.0, "delivered": 0.0, "pending": 0.0, "cancelled": 0.0}
	for _, v := range values {
		m, _ := v.(map[string]any)
		out["total"] = out["total"].(float64) + number(m["total"])
		out["count"] = out["count"].(float64) + number(m["count"])
		switch m["status"] {
		case domain.StatusDelivered, domain.StatusPending, domain.StatusCancelled:
			key := m["status"].(string)
			out[key] = out[key].(float64) + 1
		}
	}
	out["total"] = math.Round(out["total"].(float64)*100) / 100
	return out
}

func productsByCategoryMap(doc domain.RawDoc, emit func(key, value any)) {
	if doc.Kind() != domain.KindProduct {
		return
	}
	category, _ := doc["category"].(string)
	if category == "" {
		return
	}
	emit(category, map[string]any{"count": 1.0, "total_value": number(doc["price"])})
}

func productsByCategoryReduce(values []any) any {
	var count, total float64
	for _, v := range values {
		m, _ := v.(map[string]any)
		count += number(m["count"])
		total += number(m["total_value"])
	}
	avg := 0.0
	if count > 0 {
		avg = math.Round(total/count*100) / 100
	}
	return map[string]any{
		"count":       count,
		"total_value": math.Round(total*100) / 100,
		"avg_price":   avg,
	}
}

func number(v any) float64 {
	f, _ := v.(float64)
	return f
}
