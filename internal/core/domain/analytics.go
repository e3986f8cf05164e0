package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTopN is the number of top products reported when unset.
const DefaultTopN = 5

// Names of the analytics design document and its views.
const (
	AnalyticsDesign        = "analytics"
	ViewSalesByMonth       = "sales_by_month"
	ViewProductsByCategory = "products_by_category"
)

// DesignID returns the document ID of a design name.
func DesignID(name string) string {
	return "_design/" + name
}

// YearMonth identifies a calendar month bucket of the sales aggregation.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// YearMonthOf returns the bucket containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// ParseYearMonth parses "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: month %q must be formatted YYYY-MM", ErrInvalidInput, s)
	}
	return YearMonthOf(t), nil
}

// Validate checks the month is within 1..12 and the year is positive.
func (ym YearMonth) Validate() error {
	if ym.Year <= 0 || ym.Month < 1 || ym.Month > 12 {
		return fmt.Errorf("%w: invalid year/month %d/%d", ErrInvalidInput, ym.Year, ym.Month)
	}
	return nil
}

// Key returns the composite view key [year, month].
func (ym YearMonth) Key() []any {
	return []any{ym.Year, ym.Month}
}

// Label returns the zero-padded "YYYY-MM" form. Labels sort
// lexicographically in chronological order only because of the padding.
func (ym YearMonth) Label() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// ViewSource is the map/reduce source of one view.
type ViewSource struct {
	Map    string `json:"map"`
	Reduce string `json:"reduce,omitempty"`
}

// DesignDoc is a design document holding view definitions.
type DesignDoc struct {
	ID       string                `json:"_id"`
	Rev      string                `json:"_rev,omitempty"`
	Language string                `json:"language,omitempty"`
	Views    map[string]ViewSource `json:"views"`
}

// ViewQuery holds the parameters of a view request.
type ViewQuery struct {
	Group      bool
	GroupLevel int
	Reduce     *bool
	StartKey   any
	EndKey     any
	Limit      int
	Descending bool
}

// ViewRow is one row of a view response.
type ViewRow struct {
	ID    string `json:"id,omitempty"`
	Key   any    `json:"key"`
	Value any    `json:"value"`
}

// ViewResult is a view response.
type ViewResult struct {
	TotalRows int       `json:"total_rows,omitempty"`
	Offset    int       `json:"offset,omitempty"`
	Rows      []ViewRow `json:"rows"`
}

// IndexState compares the sequence a view index has processed with the
// database's current update sequence.
type IndexState struct {
	Design   string `json:"design"`
	View     string `json:"view"`
	IndexSeq int64  `json:"index_seq"`
	DBSeq    int64  `json:"db_seq"`
}

// CaughtUp reports whether the index reflects every database change.
func (s IndexState) CaughtUp() bool {
	return s.IndexSeq >= s.DBSeq
}

// SeqNumber returns the numeric part of an update sequence. CouchDB 1.x
// reports plain integers, later versions "N-opaque" strings.
func SeqNumber(seq any) int64 {
	switch v := seq.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		if i := strings.IndexByte(v, '-'); i >= 0 {
			v = v[:i]
		}
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// ViewRegistration is the outcome of ensuring view definitions exist.
type ViewRegistration struct {
	// Design is the design document identifier.
	Design string `json:"design"`

	// Changed is false when the stored definitions already matched.
	Changed bool `json:"changed"`

	// Ready is false while the store is still rebuilding the index.
	Ready bool `json:"ready"`

	// Views lists the registered view names.
	Views []string `json:"views"`
}

// SalesBucket is one row of the sales-by-month aggregation.
type SalesBucket struct {
	Period       YearMonth      `json:"period"`
	Label        string         `json:"label"`
	OrderCount   int            `json:"order_count"`
	Revenue      float64        `json:"revenue"`
	StatusCounts map[string]int `json:"status_counts,omitempty"`
}

// SalesByMonth is the post-processed sales aggregation.
// Buckets keep the store's key order; Revenue and Orders are keyed by label.
type SalesByMonth struct {
	Buckets []SalesBucket      `json:"buckets"`
	Revenue map[string]float64 `json:"revenue"`
	Orders  map[string]int     `json:"orders"`
}

// CategoryBucket is one row of the products-by-category aggregation.
type CategoryBucket struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"total_value"`
	AvgPrice   float64 `json:"avg_price"`
}

// ProductsByCategory is the post-processed category aggregation.
type ProductsByCategory struct {
	Buckets []CategoryBucket `json:"buckets"`
	Counts  map[string]int   `json:"counts"`
}

// ProductRevenue is a product's contribution to revenue.
type ProductRevenue struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Revenue     float64 `json:"revenue"`
	Quantity    int     `json:"quantity"`
	OrderCount  int     `json:"order_count"`
}

// CategoryShare is a category's share of the product catalogue.
type CategoryShare struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SummaryOptions tunes the KPI summary.
type SummaryOptions struct {
	// TopN is the number of top products reported. Defaults to DefaultTopN.
	TopN int
}

// KPISummary is the set of named summary metrics.
type KPISummary struct {
	TotalRevenue      float64          `json:"total_revenue"`
	OrderCount        int              `json:"order_count"`
	AverageOrderValue float64          `json:"average_order_value"`
	DistinctCustomers int              `json:"distinct_customers"`
	TopProducts       []ProductRevenue `json:"top_products"`
	Categories        []CategoryShare  `json:"categories"`
	OrdersByStatus    map[string]int   `json:"orders_by_status"`
}

// Metrics flattens the scalar metrics into a name to value mapping.
func (s KPISummary) Metrics() map[string]float64 {
	return map[string]float64{
		"total_revenue":       s.TotalRevenue,
		"order_count":         float64(s.OrderCount),
		"average_order_value": s.AverageOrderValue,
		"distinct_customers":  float64(s.DistinctCustomers),
	}
}

// CustomerStats holds per-customer order totals.
type CustomerStats struct {
	CustomerID    string     `json:"customer_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	TotalOrders   int        `json:"total_orders"`
	TotalSpent    float64    `json:"total_spent"`
	LastOrderDate *time.Time `json:"last_order_date,omitempty"`
}

// CustomerAnalytics summarises customer activity.
type CustomerAnalytics struct {
	TotalCustomers           int             `json:"total_customers"`
	ActiveCustomers          int             `json:"active_customers"`
	AverageOrdersPerCustomer float64         `json:"average_orders_per_customer"`
	Customers                []CustomerStats `json:"customers"`
}

// PriceStats holds catalogue price statistics.
type PriceStats struct {
	Min     float64 `json:"min_price"`
	Max     float64 `json:"max_price"`
	Average float64 `json:"average_price"`
}

// ProductPerformance summarises the product catalogue.
type ProductPerformance struct {
	TotalProducts int            `json:"total_products"`
	Categories    map[string]int `json:"categories"`
	Prices        PriceStats     `json:"price_stats"`
}

// RecentActivity lists orders and events inside a trailing window.
type RecentActivity struct {
	PeriodDays  int      `json:"period_days"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	TotalOrders int      `json:"total_orders"`
	TotalEvents int      `json:"total_events"`
	Orders      []*Order `json:"orders"`
	Events      []*Event `json:"events"`
}
