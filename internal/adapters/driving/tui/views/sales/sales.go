// Package sales provides the monthly sales view for the TUI.
package sales

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/components/chart"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

// trailingMonths is the window shown when the range is restricted.
const trailingMonths = 12

// View shows revenue and order counts per month.
type View struct {
	styles    *styles.Styles
	analytics driving.AnalyticsService
	now       func() time.Time

	result       *domain.Result[domain.SalesByMonth]
	trailing     bool
	loading      bool
	scrollOffset int

	width  int
	height int
	ready  bool
}

// NewView creates a new sales view.
func NewView(s *styles.Styles, analytics driving.AnalyticsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		analytics: analytics,
		now:       time.Now,
		width:     80,
		height:    24,
	}
}

// Init loads the aggregation.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

// Range returns the month range requested from the service.
// Both ends are nil when every month is shown.
func (v *View) Range() (from, to *domain.YearMonth) {
	if !v.trailing {
		return nil, nil
	}
	now := v.now()
	end := domain.YearMonthOf(now)
	start := domain.YearMonthOf(now.AddDate(0, -(trailingMonths - 1), 0))
	return &start, &end
}

func (v *View) load() tea.Cmd {
	from, to := v.Range()
	return func() tea.Msg {
		if v.analytics == nil {
			return messages.SalesLoaded{Result: domain.Fail[domain.SalesByMonth](
				fmt.Errorf("%w: analytics service not available", domain.ErrUnavailable), "sales unavailable")}
		}
		return messages.SalesLoaded{Result: v.analytics.SalesByMonth(context.Background(), from, to)}
	}
}

// Update handles messages for the sales view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SalesLoaded:
		v.loading = false
		v.result = &msg.Result
		v.scrollOffset = 0
		return v, nil

	case messages.RefreshRequested:
		return v, v.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.scrollOffset > 0 {
				v.scrollOffset--
			}
		case "down", "j":
			if v.scrollOffset < v.maxScrollOffset() {
				v.scrollOffset++
			}
		case "t":
			v.trailing = !v.trailing
			return v, v.Init()
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

func (v *View) visibleRows() int {
	// title, range, header, totals, status breakdown and help
	available := v.height - 10
	if available < 1 {
		available = 1
	}
	return available
}

func (v *View) maxScrollOffset() int {
	if v.result == nil || !v.result.Success {
		return 0
	}
	maxOffset := len(v.result.Data.Buckets) - v.visibleRows()
	if maxOffset < 0 {
		return 0
	}
	return maxOffset
}

// View renders the sales view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sales by month"))
	b.WriteString("\n")
	if from, to := v.Range(); from != nil {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s to %s", from.Label(), to.Label())))
	} else {
		b.WriteString(v.styles.Muted.Render("All months"))
	}
	b.WriteString("\n\n")

	switch {
	case v.loading || v.result == nil:
		b.WriteString(v.styles.Muted.Render("Loading sales..."))
	case !v.result.Success:
		b.WriteString(v.styles.Placeholder.Render("No data available"))
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(v.result.Message))
	case len(v.result.Data.Buckets) == 0:
		b.WriteString(v.styles.Muted.Render("No orders in range"))
	default:
		b.WriteString(v.renderTable(v.result.Data.Buckets))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [t] toggle last 12 months  [r] refresh  [esc] back"))
	return b.String()
}

func (v *View) renderTable(buckets []domain.SalesBucket) string {
	var b strings.Builder

	maxRevenue := 0.0
	totalRevenue := 0.0
	totalOrders := 0
	statuses := map[string]int{}
	for _, bucket := range buckets {
		if bucket.Revenue > maxRevenue {
			maxRevenue = bucket.Revenue
		}
		totalRevenue += bucket.Revenue
		totalOrders += bucket.OrderCount
		for st, n := range bucket.StatusCounts {
			statuses[st] += n
		}
	}

	barWidth := v.width - 40
	if barWidth > 40 {
		barWidth = 40
	}
	if barWidth < 5 {
		barWidth = 5
	}

	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%-8s %7s %14s", "month", "orders", "revenue")))
	b.WriteString("\n")

	end := v.scrollOffset + v.visibleRows()
	if end > len(buckets) {
		end = len(buckets)
	}
	for _, bucket := range buckets[v.scrollOffset:end] {
		b.WriteString(fmt.Sprintf("%-8s %7d %14s  %s\n",
			bucket.Label, bucket.OrderCount, chart.Money(bucket.Revenue),
			v.styles.Bar.Render(chart.Bar(bucket.Revenue, maxRevenue, barWidth))))
	}
	if len(buckets) > v.visibleRows() {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(buckets))))
		b.WriteString("\n")
	}

	b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("%-8s %7d %14s", "total", totalOrders, chart.Money(totalRevenue))))

	if len(statuses) > 0 {
		names := make([]string, 0, len(statuses))
		for st := range statuses {
			names = append(names, st)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, st := range names {
			parts[i] = fmt.Sprintf("%s %d", st, statuses[st])
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("By status: " + strings.Join(parts, "  ")))
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Result returns the last envelope, or nil before the first load.
func (v *View) Result() *domain.Result[domain.SalesByMonth] {
	return v.result
}

// Trailing reports whether only the last twelve months are shown.
func (v *View) Trailing() bool {
	return v.trailing
}
