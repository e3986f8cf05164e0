package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the database, indexes and analytics views",
	Long: `Check the server answers, create the configured database if it does not
exist, create the Mango indexes used by queries and register the analytics
design document. Running setup again is safe.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	if adminService == nil {
		return notConfigured("admin")
	}

	result := adminService.Setup(commandContext(cmd))
	return emit(cmd, result, func(r domain.SetupReport) {
		if r.DatabaseCreated {
			cmd.Println("Database created")
		} else {
			cmd.Println("Database already exists")
		}
		cmd.Printf("Indexes: %s\n", strings.Join(r.Indexes, ", "))
		state := "unchanged"
		if r.Views.Changed {
			state = "registered"
		}
		cmd.Printf("Views (%s): %s %s\n", r.Views.Design, strings.Join(r.Views.Views, ", "), state)
		cmd.Println(result.Message)
	})
}
