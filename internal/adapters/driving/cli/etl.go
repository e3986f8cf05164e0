package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Load and verify the sample dataset",
}

var etlRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate, clean, enrich and load sample data",
	Long: `Load the sample catalogue and customers, generate random orders and
analytics events, clean and enrich every record and bulk-load the result.

Use --seed for a reproducible dataset.`,
	Args: cobra.NoArgs,
	RunE: runETL,
}

var etlVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Count stored documents per kind",
	Args:  cobra.NoArgs,
	RunE:  runETLVerify,
}

// Flags for the etl run command.
var (
	etlOrders int
	etlEvents int
	etlSeed   int64
)

func init() {
	defaults := domain.DefaultETLOptions()
	etlRunCmd.Flags().IntVar(&etlOrders, "orders", defaults.Orders, "Number of orders to generate")
	etlRunCmd.Flags().IntVar(&etlEvents, "events", defaults.Events, "Number of events to generate")
	etlRunCmd.Flags().Int64Var(&etlSeed, "seed", 0, "Random seed (0 picks one from the clock)")

	etlCmd.AddCommand(etlRunCmd)
	etlCmd.AddCommand(etlVerifyCmd)
	rootCmd.AddCommand(etlCmd)
}

func runETL(cmd *cobra.Command, _ []string) error {
	if etlService == nil {
		return notConfigured("etl")
	}

	opts := domain.ETLOptions{Orders: etlOrders, Events: etlEvents, Seed: etlSeed}
	result := etlService.Run(commandContext(cmd), opts)
	return emit(cmd, result, func(r domain.ETLReport) {
		cmd.Println("ETL complete")
		cmd.Printf("  Products:  %d\n", r.Products)
		cmd.Printf("  Customers: %d\n", r.Customers)
		cmd.Printf("  Orders:    %d\n", r.Orders)
		cmd.Printf("  Events:    %d\n", r.Events)
		cmd.Printf("  Inserted:  %d of %d\n", r.Inserted, r.Total)
		if r.Failed > 0 {
			cmd.Printf("  Failed:    %d\n", r.Failed)
		}
		for _, w := range r.Warnings {
			cmd.Printf("  Warning: %s\n", w)
		}
	})
}

func runETLVerify(cmd *cobra.Command, _ []string) error {
	if etlService == nil {
		return notConfigured("etl")
	}

	result := etlService.Verify(commandContext(cmd))
	return emit(cmd, result, func(counts []domain.KindCount) {
		total := 0
		for _, c := range counts {
			cmd.Printf("  %-10s %d\n", c.Kind.Label(), c.Count)
			total += c.Count
		}
		cmd.Printf("  %-10s %d\n", "Total", total)
	})
}
