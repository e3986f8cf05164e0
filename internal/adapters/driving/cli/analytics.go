package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Sales and catalogue analytics",
	Long:  `Run the aggregation views and KPI summaries over the stored orders and products.`,
}

var analyticsViewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Register the analytics views",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsViews,
}

var analyticsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the KPI summary",
	Long: `Show total revenue, order count, average order value, distinct customers,
the top products by revenue, the category share of the catalogue and the
order count per status. Cancelled orders do not count towards revenue.`,
	Args: cobra.NoArgs,
	RunE: runAnalyticsSummary,
}

var analyticsSalesCmd = &cobra.Command{
	Use:   "sales",
	Short: "Show revenue and orders per month",
	Long: `Show revenue and order count per month, optionally restricted to an
inclusive range.

Examples:
  couchlab analytics sales
  couchlab analytics sales --from 2024-01 --to 2024-06`,
	Args: cobra.NoArgs,
	RunE: runAnalyticsSales,
}

var analyticsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show product count and value per category",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsCategories,
}

var analyticsTopProductsCmd = &cobra.Command{
	Use:   "top-products",
	Short: "Rank products by units sold",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsTopProducts,
}

var analyticsCustomersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Show customer activity",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsCustomers,
}

var analyticsProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Show catalogue statistics",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsProducts,
}

var analyticsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent orders and events",
	Args:  cobra.NoArgs,
	RunE:  runAnalyticsRecent,
}

// Flags for analytics commands.
var (
	analyticsTopN  int
	analyticsFrom  string
	analyticsTo    string
	analyticsLimit int
	analyticsDays  int
)

func init() {
	analyticsSummaryCmd.Flags().IntVar(&analyticsTopN, "top", 0, "Number of top products (default from settings)")
	analyticsSalesCmd.Flags().StringVar(&analyticsFrom, "from", "", "First month, YYYY-MM")
	analyticsSalesCmd.Flags().StringVar(&analyticsTo, "to", "", "Last month, YYYY-MM")
	analyticsTopProductsCmd.Flags().IntVarP(&analyticsLimit, "limit", "n", 10, "Number of products")
	analyticsRecentCmd.Flags().IntVar(&analyticsDays, "days", 7, "Look back this many days")

	analyticsCmd.AddCommand(analyticsViewsCmd)
	analyticsCmd.AddCommand(analyticsSummaryCmd)
	analyticsCmd.AddCommand(analyticsSalesCmd)
	analyticsCmd.AddCommand(analyticsCategoriesCmd)
	analyticsCmd.AddCommand(analyticsTopProductsCmd)
	analyticsCmd.AddCommand(analyticsCustomersCmd)
	analyticsCmd.AddCommand(analyticsProductsCmd)
	analyticsCmd.AddCommand(analyticsRecentCmd)
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalyticsViews(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return notConfigured("analytics")
	}

	result := analyticsService.EnsureViews(commandContext(cmd))
	return emit(cmd, result, func(r domain.ViewRegistration) {
		cmd.Printf("Design: %s\n", r.Design)
		cmd.Printf("Views:  %s\n", strings.Join(r.Views, ", "))
		switch {
		case !r.Changed:
			cmd.Println("Definitions unchanged")
		case !r.Ready:
			cmd.Println("Definitions updated, index is rebuilding")
		default:
			cmd.Println("Definitions updated")
		}
	})
}

func runAnalyticsSummary(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return notConfigured("analytics")
	}

	topN := analyticsTopN
	if topN <= 0 && settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			topN = s.Analytics.TopN
		}
	}

	result := analyticsService.Summary(commandContext(cmd), domain.SummaryOptions{TopN: topN})
	return emit(cmd, result, func(s domain.KPISummary) {
		cmd.Println("KPI Summary")
		cmd.Println("===========")
		cmd.Printf("  Total revenue:       %s\n", money(s.TotalRevenue))
		cmd.Printf("  Orders:              %d\n", s.OrderCount)
		cmd.Printf("  Average order value: %s\n", money(s.AverageOrderValue))
		cmd.Printf("  Distinct customers:  %d\n", s.DistinctCustomers)

		cmd.Println("\nTop products by revenue:")
		if len(s.TopProducts) == 0 {
			cmd.Println("  (none)")
		}
		for i, p := range s.TopProducts {
			cmd.Printf("  %d. %-30s %12s  %4d units\n", i+1, productLabel(p), money(p.Revenue), p.Quantity)
		}

		cmd.Println("\nCategories:")
		if len(s.Categories) == 0 {
			cmd.Println("  (none)")
		}
		for _, c := range s.Categories {
			cmd.Printf("  %-20s %4d  %5.1f%%\n", c.Category, c.Count, c.Percentage)
		}

		if len(s.OrdersByStatus) > 0 {
			cmd.Println("\nOrders by status:")
			for _, st := range sortedKeys(s.OrdersByStatus) {
				cmd.Printf("  %-12s %d\n", st, s.OrdersByStatus[st])
			}
		}
	})
}

func runAnalyticsSales(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return notConfigured("analytics")
	}

	from, err := optionalMonth(analyticsFrom, "--from")
	if err != nil {
		return err
	}
	to, err := optionalMonth(analyticsTo, "--to")
	if err != nil {
		return err
	}

	result := analyticsService.SalesByMonth(commandContext(cmd), from, to)
	return emit(cmd, result, func(s domain.SalesByMonth) {
		if len(s.Buckets) == 0 {
			cmd.Println("No orders in range")
			return
		}
		cmd.Printf("%-8s %7s %14s\n", "month", "orders", "revenue")
		var orders int
		var revenue float64
		for _, b := range s.Buckets {
			cmd.Printf("%-8s %7d %14s\n", b.Label, b.OrderCount, money(b.Revenue))
			orders += b.OrderCount
			revenue += b.Revenue
		}
		cmd.Printf("%-8s %7d %14s\n", "total", orders, money(revenue))
	})
}

func runAnalyticsCategories(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return notConfigured("analytics")
	}

	result := analyticsService.ProductsByCategory(commandContext(cmd))
	return emit(cmd, result, func(p domain.ProductsByCategory) {
		if len(p.Buckets) == 0 {
			cmd.Println("No products")
			return
		}
		cmd.Printf("%-20s %6s %14s %10s\n", "category", "count", "total value", "avg price")
		for _, b := range p.Buckets {
			cmd.Printf("%-20s %6d %14s %10s\n", b.Category, b.Count, money(b.TotalValue), money(b.AvgPrice))
		}
	})
}

func runAnalyticsTopProducts(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return notConfigured("analytics")
	}

	result := analyticsService.TopProductsByQuantity(commandContext(cmd), analyticsLimit)
	return emit(cmd, result, func(top []domain.ProductRevenue) {
		if len(top) == 0 {
			cmd.Println("No orders")
			return
		}
		for i, p := range top {
			cmd.Printf("  %d. %-30s %4d units  %12s  %d orders\n",
				i+1, productLabel(p), p.Quantity, money(p.Revenue), p.OrderCount)
		}
	})
}

func runAnalyticsCustomers(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return notConfigured("analytics")
	}

	result := analyticsService.CustomerAnalytics(commandContext(cmd))
	return emit(cmd, result, func(c domain.CustomerAnalytics) {
		cmd.Printf("Customers:        %d\n", c.TotalCustomers)
		cmd.Printf("Active customers: %d\n", c.ActiveCustomers)
		cmd.Printf("Orders/customer:  %.2f\n\n", c.AverageOrdersPerCustomer)
		for _, s := range c.Customers {
			last := "-"
			if s.LastOrderDate != nil {
				last = s.LastOrderDate.Format("2006-01-02")
			}
			cmd.Printf("  %-24s %-28s %3d orders %12s  last %s\n",
				s.Name, s.Email, s.TotalOrders, money(s.TotalSpent), last)
		}
	})
}

func runAnalyticsProducts(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return notConfigured("analytics")
	}

	result := analyticsService.ProductPerformance(commandContext(cmd))
	return emit(cmd, result, func(p domain.ProductPerformance) {
		cmd.Printf("Products: %d\n", p.TotalProducts)
		cmd.Printf("Price:    min %s  max %s  avg %s\n", money(p.Prices.Min), money(p.Prices.Max), money(p.Prices.Average))
		if len(p.Categories) > 0 {
			cmd.Println("\nCategories:")
			for _, c := range sortedKeys(p.Categories) {
				cmd.Printf("  %-20s %d\n", c, p.Categories[c])
			}
		}
	})
}

func runAnalyticsRecent(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return notConfigured("analytics")
	}

	result := analyticsService.RecentActivity(commandContext(cmd), analyticsDays)
	return emit(cmd, result, func(r domain.RecentActivity) {
		cmd.Printf("Activity from %s to %s\n\n", r.From, r.To)
		cmd.Printf("Orders (%d):\n", r.TotalOrders)
		for _, o := range r.Orders {
			cmd.Printf("  %s  %s  %-10s %12s\n",
				o.OrderedAt().Format("2006-01-02 15:04"), o.ID, o.Status, money(o.Total()))
		}
		cmd.Printf("\nEvents (%d):\n", r.TotalEvents)
		for _, e := range r.Events {
			cmd.Printf("  %s  %-16s %s %s\n",
				e.Timestamp.Format("2006-01-02 15:04"), e.EventType, e.EntityType, e.EntityID)
		}
	})
}

func optionalMonth(s, flag string) (*domain.YearMonth, error) {
	if s == "" {
		return nil, nil
	}
	ym, err := domain.ParseYearMonth(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flag, err)
	}
	return &ym, nil
}

func productLabel(p domain.ProductRevenue) string {
	if p.ProductName != "" {
		return p.ProductName
	}
	return p.ProductID
}

// money formats an amount with two decimals and thousands separators.
func money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg && out != "0.00" {
		out = "-" + out
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
