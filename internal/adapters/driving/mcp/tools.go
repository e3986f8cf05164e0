package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/mango"
)

// defaultFindLimit caps find_documents when no limit is given.
const defaultFindLimit = 25

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

// SummaryInput is the input schema for the kpi_summary tool.
type SummaryInput struct {
	TopN int `json:"top_n,omitempty" jsonschema:"number of top products to include (default 5)"`
}

// SummaryOutput is the output schema for the kpi_summary tool.
type SummaryOutput struct {
	TotalRevenue      float64                 `json:"total_revenue"`
	OrderCount        int                     `json:"order_count"`
	AverageOrderValue float64                 `json:"average_order_value"`
	DistinctCustomers int                     `json:"distinct_customers"`
	TopProducts       []domain.ProductRevenue `json:"top_products"`
	Categories        []domain.CategoryShare  `json:"categories"`
	OrdersByStatus    map[string]int          `json:"orders_by_status"`
}

// SalesInput is the input schema for the sales_by_month tool.
type SalesInput struct {
	From string `json:"from,omitempty" jsonschema:"first month to include, formatted YYYY-MM"`
	To   string `json:"to,omitempty" jsonschema:"last month to include, formatted YYYY-MM"`
}

// SalesOutput is the output schema for the sales_by_month tool.
type SalesOutput struct {
	Months []MonthOutput `json:"months"`
}

// MonthOutput is one month of sales.
type MonthOutput struct {
	Month      string  `json:"month"`
	OrderCount int     `json:"order_count"`
	Revenue    float64 `json:"revenue"`
}

// CategoriesOutput is the output schema for the products_by_category tool.
type CategoriesOutput struct {
	Categories []domain.CategoryBucket `json:"categories"`
}

// TopProductsInput is the input schema for the top_products tool.
type TopProductsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of products to return (default 5)"`
}

// TopProductsOutput is the output schema for the top_products tool.
type TopProductsOutput struct {
	Products []domain.ProductRevenue `json:"products"`
}

// CustomersOutput is the output schema for the customer_analytics tool.
type CustomersOutput struct {
	TotalCustomers           int              `json:"total_customers"`
	ActiveCustomers          int              `json:"active_customers"`
	AverageOrdersPerCustomer float64          `json:"average_orders_per_customer"`
	Customers                []CustomerOutput `json:"customers"`
}

// CustomerOutput is one customer's activity.
type CustomerOutput struct {
	CustomerID    string  `json:"customer_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	TotalOrders   int     `json:"total_orders"`
	TotalSpent    float64 `json:"total_spent"`
	LastOrderDate string  `json:"last_order_date,omitempty"`
}

// RecentInput is the input schema for the recent_activity tool.
type RecentInput struct {
	Days int `json:"days,omitempty" jsonschema:"size of the trailing window in days (default 7)"`
}

// RecentOutput is the output schema for the recent_activity tool.
type RecentOutput struct {
	PeriodDays  int           `json:"period_days"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	TotalOrders int           `json:"total_orders"`
	TotalEvents int           `json:"total_events"`
	Orders      []OrderOutput `json:"orders"`
	Events      []EventOutput `json:"events"`
}

// OrderOutput is a compact order.
type OrderOutput struct {
	ID         string  `json:"id"`
	CustomerID string  `json:"customer_id"`
	Status     string  `json:"status"`
	Total      float64 `json:"total"`
	OrderedAt  string  `json:"ordered_at"`
}

// EventOutput is a compact event.
type EventOutput struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	EntityID  string `json:"entity_id"`
	UserID    string `json:"user_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// FindInput is the input schema for the find_documents tool.
type FindInput struct {
	Kind     string   `json:"kind" jsonschema:"document kind: product, customer, order or analytics_event"`
	Filters  []string `json:"filters,omitempty" jsonschema:"filter expressions such as price>=10, status=pending, category~Books|Toys"`
	Sort     string   `json:"sort,omitempty" jsonschema:"sort key such as price:desc"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of documents (default 25)"`
	Bookmark string   `json:"bookmark,omitempty" jsonschema:"bookmark returned by a previous page"`
}

// FindOutput is the output schema for the find_documents tool.
type FindOutput struct {
	Documents []map[string]any `json:"documents"`
	Count     int              `json:"count"`
	Bookmark  string           `json:"bookmark,omitempty"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	ID string `json:"id" jsonschema:"the document identifier"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	Document map[string]any `json:"document"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kpi_summary",
		Description: "Revenue, order count, average order value, top products and category shares",
	}, s.handleSummary)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sales_by_month",
		Description: "Order count and revenue per month, optionally within a month range",
	}, s.handleSales)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "products_by_category",
		Description: "Product count, total value and average price per category",
	}, s.handleCategories)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "top_products",
		Description: "Products ranked by units sold",
	}, s.handleTopProducts)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "customer_analytics",
		Description: "Per-customer order totals and activity",
	}, s.handleCustomers)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "product_performance",
		Description: "Catalogue size, category counts and price statistics",
	}, s.handleProductPerformance)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recent_activity",
		Description: "Orders and events of the last days",
	}, s.handleRecent)

	if s.ports.CRUD != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "find_documents",
			Description: "Find documents of one kind with filter expressions",
		}, s.handleFind)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_document",
			Description: "Fetch one document by identifier",
		}, s.handleGetDocument)
	}
}

// record counts the call and turns a failed envelope into a tool error.
func record[T any](s *Server, tool string, r domain.Result[T]) error {
	s.metrics.ToolCall(tool, r.Success)
	return r.Err()
}

func (s *Server) handleSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummaryInput,
) (*mcp.CallToolResult, SummaryOutput, error) {
	res := s.ports.Analytics.Summary(ctx, domain.SummaryOptions{TopN: input.TopN})
	if err := record(s, "kpi_summary", res); err != nil {
		return nil, SummaryOutput{}, err
	}
	kpi := res.Data
	return nil, SummaryOutput{
		TotalRevenue:      kpi.TotalRevenue,
		OrderCount:        kpi.OrderCount,
		AverageOrderValue: kpi.AverageOrderValue,
		DistinctCustomers: kpi.DistinctCustomers,
		TopProducts:       nonNil(kpi.TopProducts),
		Categories:        nonNil(kpi.Categories),
		OrdersByStatus:    kpi.OrdersByStatus,
	}, nil
}

func (s *Server) handleSales(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SalesInput,
) (*mcp.CallToolResult, SalesOutput, error) {
	from, err := optionalMonth(input.From)
	if err != nil {
		s.metrics.ToolCall("sales_by_month", false)
		return nil, SalesOutput{}, err
	}
	to, err := optionalMonth(input.To)
	if err != nil {
		s.metrics.ToolCall("sales_by_month", false)
		return nil, SalesOutput{}, err
	}

	res := s.ports.Analytics.SalesByMonth(ctx, from, to)
	if err := record(s, "sales_by_month", res); err != nil {
		return nil, SalesOutput{}, err
	}
	out := SalesOutput{Months: make([]MonthOutput, len(res.Data.Buckets))}
	for i, b := range res.Data.Buckets {
		out.Months[i] = MonthOutput{Month: b.Label, OrderCount: b.OrderCount, Revenue: b.Revenue}
	}
	return nil, out, nil
}

func (s *Server) handleCategories(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, CategoriesOutput, error) {
	res := s.ports.Analytics.ProductsByCategory(ctx)
	if err := record(s, "products_by_category", res); err != nil {
		return nil, CategoriesOutput{}, err
	}
	return nil, CategoriesOutput{Categories: nonNil(res.Data.Buckets)}, nil
}

func (s *Server) handleTopProducts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TopProductsInput,
) (*mcp.CallToolResult, TopProductsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultTopN
	}
	res := s.ports.Analytics.TopProductsByQuantity(ctx, limit)
	if err := record(s, "top_products", res); err != nil {
		return nil, TopProductsOutput{}, err
	}
	return nil, TopProductsOutput{Products: nonNil(res.Data)}, nil
}

func (s *Server) handleCustomers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, CustomersOutput, error) {
	res := s.ports.Analytics.CustomerAnalytics(ctx)
	if err := record(s, "customer_analytics", res); err != nil {
		return nil, CustomersOutput{}, err
	}
	data := res.Data
	out := CustomersOutput{
		TotalCustomers:           data.TotalCustomers,
		ActiveCustomers:          data.ActiveCustomers,
		AverageOrdersPerCustomer: data.AverageOrdersPerCustomer,
		Customers:                make([]CustomerOutput, len(data.Customers)),
	}
	for i, c := range data.Customers {
		out.Customers[i] = CustomerOutput{
			CustomerID:  c.CustomerID,
			Name:        c.Name,
			Email:       c.Email,
			TotalOrders: c.TotalOrders,
			TotalSpent:  c.TotalSpent,
		}
		if c.LastOrderDate != nil {
			out.Customers[i].LastOrderDate = c.LastOrderDate.Format(time.RFC3339)
		}
	}
	return nil, out, nil
}

func (s *Server) handleProductPerformance(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, domain.ProductPerformance, error) {
	res := s.ports.Analytics.ProductPerformance(ctx)
	if err := record(s, "product_performance", res); err != nil {
		return nil, domain.ProductPerformance{}, err
	}
	return nil, res.Data, nil
}

func (s *Server) handleRecent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecentInput,
) (*mcp.CallToolResult, RecentOutput, error) {
	days := input.Days
	if days <= 0 {
		days = 7
	}
	res := s.ports.Analytics.RecentActivity(ctx, days)
	if err := record(s, "recent_activity", res); err != nil {
		return nil, RecentOutput{}, err
	}
	data := res.Data
	out := RecentOutput{
		PeriodDays:  data.PeriodDays,
		From:        data.From,
		To:          data.To,
		TotalOrders: data.TotalOrders,
		TotalEvents: data.TotalEvents,
		Orders:      make([]OrderOutput, len(data.Orders)),
		Events:      make([]EventOutput, len(data.Events)),
	}
	for i, o := range data.Orders {
		out.Orders[i] = OrderOutput{
			ID:         o.ID,
			CustomerID: o.CustomerID,
			Status:     o.Status,
			Total:      o.Total(),
			OrderedAt:  o.OrderedAt().Format(time.RFC3339),
		}
	}
	for i, e := range data.Events {
		out.Events[i] = EventOutput{
			ID:        e.ID,
			EventType: e.EventType,
			EntityID:  e.EntityID,
			UserID:    e.UserID,
			Timestamp: e.Timestamp.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

func (s *Server) handleFind(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindInput,
) (*mcp.CallToolResult, FindOutput, error) {
	q, err := buildFind(input)
	if err != nil {
		s.metrics.ToolCall("find_documents", false)
		return nil, FindOutput{}, err
	}
	res := s.ports.CRUD.Find(ctx, q)
	if err := record(s, "find_documents", res); err != nil {
		return nil, FindOutput{}, err
	}
	out := FindOutput{
		Documents: make([]map[string]any, len(res.Data.Docs)),
		Count:     len(res.Data.Docs),
		Bookmark:  res.Data.Bookmark,
	}
	for i, doc := range res.Data.Docs {
		out.Documents[i] = doc
	}
	return nil, out, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	res := s.ports.CRUD.GetRaw(ctx, input.ID)
	if err := record(s, "get_document", res); err != nil {
		return nil, GetDocumentOutput{}, err
	}
	return nil, GetDocumentOutput{Document: res.Data}, nil
}

// buildFind turns tool input into a query.
func buildFind(input FindInput) (domain.Query, error) {
	kind, err := domain.ParseKind(input.Kind)
	if err != nil {
		return domain.Query{}, err
	}
	b, err := mango.FromFilters(kind, input.Filters)
	if err != nil {
		return domain.Query{}, err
	}
	if input.Sort != "" {
		b.SortBy(input.Sort)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}
	q, err := b.Limit(limit).Build()
	if err != nil {
		return domain.Query{}, err
	}
	q.Bookmark = input.Bookmark
	return q, nil
}

func optionalMonth(s string) (*domain.YearMonth, error) {
	if s == "" {
		return nil, nil
	}
	ym, err := domain.ParseYearMonth(s)
	if err != nil {
		return nil, fmt.Errorf("sales_by_month: %w", err)
	}
	return &ym, nil
}

// nonNil keeps empty lists as [] in tool output.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
