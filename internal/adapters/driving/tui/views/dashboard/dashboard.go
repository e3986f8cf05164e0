// Package dashboard provides the KPI dashboard view for the TUI.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/components/chart"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

// NoData is shown in place of a panel whose envelope failed.
const NoData = "No data available"

// View is the KPI dashboard.
type View struct {
	styles    *styles.Styles
	analytics driving.AnalyticsService
	statusBar *status.Bar
	topN      int

	summary    *domain.Result[domain.KPISummary]
	categories *domain.Result[domain.ProductsByCategory]
	pending    int

	width  int
	height int
	ready  bool
}

// NewView creates a new dashboard view. topN bounds the top products table.
func NewView(s *styles.Styles, analytics driving.AnalyticsService, topN int) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if topN <= 0 {
		topN = domain.DefaultTopN
	}
	return &View{
		styles:    s,
		analytics: analytics,
		statusBar: status.NewBar(s, nil),
		topN:      topN,
		width:     80,
		height:    24,
	}
}

// Init loads the summary and the category aggregation.
func (v *View) Init() tea.Cmd {
	v.pending = 2
	v.statusBar.SetState(status.StateLoading)
	return tea.Batch(v.loadSummary(), v.loadCategories())
}

func (v *View) loadSummary() tea.Cmd {
	return func() tea.Msg {
		if v.analytics == nil {
			return messages.SummaryLoaded{Result: domain.Fail[domain.KPISummary](
				fmt.Errorf("%w: analytics service not available", domain.ErrUnavailable), "summary unavailable")}
		}
		res := v.analytics.Summary(context.Background(), domain.SummaryOptions{TopN: v.topN})
		return messages.SummaryLoaded{Result: res}
	}
}

func (v *View) loadCategories() tea.Cmd {
	return func() tea.Msg {
		if v.analytics == nil {
			return messages.CategoriesLoaded{Result: domain.Fail[domain.ProductsByCategory](
				fmt.Errorf("%w: analytics service not available", domain.ErrUnavailable), "categories unavailable")}
		}
		return messages.CategoriesLoaded{Result: v.analytics.ProductsByCategory(context.Background())}
	}
}

// Update handles messages for the dashboard view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SummaryLoaded:
		v.summary = &msg.Result
		v.loaded(msg.Result.Success, msg.Result.Message)
		return v, nil

	case messages.CategoriesLoaded:
		v.categories = &msg.Result
		v.loaded(msg.Result.Success, msg.Result.Message)
		return v, nil

	case messages.RefreshRequested:
		return v, v.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return v, v.Init()
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
	}

	return v, nil
}

// loaded updates the status bar once a panel arrives. Any failure wins.
func (v *View) loaded(ok bool, message string) {
	if v.pending > 0 {
		v.pending--
	}
	if !ok {
		v.statusBar.SetState(status.StateError)
		v.statusBar.SetMessage(message)
		return
	}
	if v.pending == 0 && v.statusBar.State() != status.StateError {
		v.statusBar.SetState(status.StateReady)
		v.statusBar.SetMessage("")
	}
}

// View renders the dashboard.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Dashboard"))
	b.WriteString("\n\n")

	switch {
	case v.summary == nil:
		b.WriteString(v.styles.Muted.Render("Loading summary..."))
	case !v.summary.Success:
		b.WriteString(v.placeholder(v.summary.Message))
	default:
		b.WriteString(v.renderCards(v.summary.Data))
		b.WriteString("\n\n")
		b.WriteString(v.renderTopProducts(v.summary.Data.TopProducts))
		b.WriteString("\n")
		b.WriteString(v.renderStatuses(v.summary.Data.OrdersByStatus))
		b.WriteString("\n\n")
		b.WriteString(v.renderShares(v.summary.Data.Categories))
	}
	b.WriteString("\n\n")

	b.WriteString(v.styles.Subtitle.Render("Catalogue by category"))
	b.WriteString("\n")
	switch {
	case v.categories == nil:
		b.WriteString(v.styles.Muted.Render("Loading categories..."))
	case !v.categories.Success:
		b.WriteString(v.placeholder(v.categories.Message))
	default:
		b.WriteString(v.renderCategories(v.categories.Data.Buckets))
	}
	b.WriteString("\n\n")

	v.statusBar.SetWidth(v.width)
	b.WriteString(v.statusBar.View())
	return b.String()
}

func (v *View) placeholder(message string) string {
	out := v.styles.Placeholder.Render(NoData)
	if message != "" {
		out += "\n" + v.styles.Muted.Render(message)
	}
	return out
}

func (v *View) renderCards(s domain.KPISummary) string {
	card := func(label, value string) string {
		return v.styles.Card.Render(v.styles.Muted.Render(label) + "\n" + v.styles.Metric.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Revenue", chart.Money(s.TotalRevenue)),
		card("Orders", fmt.Sprintf("%d", s.OrderCount)),
		card("Avg order", chart.Money(s.AverageOrderValue)),
		card("Customers", fmt.Sprintf("%d", s.DistinctCustomers)),
	)
}

func (v *View) renderTopProducts(top []domain.ProductRevenue) string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Top %d products by revenue", v.topN)))
	b.WriteString("\n")
	if len(top) == 0 {
		b.WriteString(v.styles.Muted.Render("No orders yet"))
		b.WriteString("\n")
		return b.String()
	}

	maxRevenue := top[0].Revenue
	for i, p := range top {
		name := p.ProductName
		if name == "" {
			name = p.ProductID
		}
		b.WriteString(fmt.Sprintf("%2d. %-24s %s %12s  %4d units\n",
			i+1, clip(name, 24), v.styles.Bar.Render(chart.Bar(p.Revenue, maxRevenue, 20)),
			chart.Money(p.Revenue), p.Quantity))
	}
	return b.String()
}

func (v *View) renderStatuses(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	statuses := make([]string, 0, len(counts))
	for st := range counts {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)

	parts := make([]string, len(statuses))
	for i, st := range statuses {
		parts[i] = fmt.Sprintf("%s %d", st, counts[st])
	}
	return v.styles.Muted.Render("Orders by status: ") + strings.Join(parts, "  ")
}

func (v *View) renderShares(shares []domain.CategoryShare) string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Category share of products"))
	b.WriteString("\n")
	for _, c := range shares {
		b.WriteString(fmt.Sprintf("%-16s %s %7s\n",
			clip(c.Category, 16), v.styles.Bar.Render(chart.Bar(c.Percentage, 100, 20)), chart.Percent(c.Percentage)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *View) renderCategories(buckets []domain.CategoryBucket) string {
	if len(buckets) == 0 {
		return v.styles.Muted.Render("No products")
	}
	var b strings.Builder
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%-16s %6s %14s %10s", "category", "count", "total value", "avg price")))
	for _, c := range buckets {
		b.WriteString(fmt.Sprintf("\n%-16s %6d %14s %10s",
			clip(c.Category, 16), c.Count, chart.Money(c.TotalValue), chart.Money(c.AvgPrice)))
	}
	return b.String()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// SetEndpoint shows the connected database in the status bar.
func (v *View) SetEndpoint(endpoint string) {
	v.statusBar.SetEndpoint(endpoint)
}

// Summary returns the last summary envelope, or nil before the first load.
func (v *View) Summary() *domain.Result[domain.KPISummary] {
	return v.summary
}

// Loading reports whether panels are still outstanding.
func (v *View) Loading() bool {
	return v.pending > 0
}
