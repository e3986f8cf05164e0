package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server exposing the analytics and
document tools to AI assistants.

By default the server talks JSON-RPC over stdio. Use --http to serve the
streamable HTTP transport instead; the same listener exposes Prometheus
metrics at /metrics.

Examples:
  # Stdio mode
  couchlab mcp serve

  # HTTP mode with metrics
  couchlab mcp serve --http :8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var mcpHTTPAddr string

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "HTTP listen address, e.g. :8080 (empty = stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return notConfigured("analytics")
	}

	ports := &mcp.Ports{
		Analytics: analyticsService,
		CRUD:      crudService,
	}

	server, err := mcp.NewServer(ports, metricsCollector)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpHTTPAddr != "" {
		cmd.PrintErrf("MCP server listening on %s\n", mcpHTTPAddr)
		return server.RunHTTP(ctx, mcpHTTPAddr)
	}
	return server.Run(ctx)
}
