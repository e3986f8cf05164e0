package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administration tasks",
	Long:  `Manage users and database security, export and import documents, and back up or restore the database.`,
}

var adminUserCmd = &cobra.Command{
	Use:   "user [name]",
	Short: "Create a database user",
	Long: `Create a user in the server's user database. The password is prompted
for when --password is not given. A user that already exists is reported
and left unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdminUser,
}

var adminSecurityCmd = &cobra.Command{
	Use:   "security",
	Short: "Grant admin and analyst access to the database",
	Long: `Add the admin user and the "admin" role to the database admins, and the
analyst user with the "analyst" and "reader" roles to its members. Names
and roles already granted are kept.`,
	Args: cobra.NoArgs,
	RunE: runAdminSecurity,
}

var adminExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export documents to JSON, CSV or YAML",
	Args:  cobra.NoArgs,
	RunE:  runAdminExport,
}

var adminImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import documents from JSON, CSV or YAML",
	Long: `Import documents from a file ("-" reads stdin). The format defaults to the
file extension. Revisions are dropped unless --update-existing is given.

With --watch DIR the command keeps running and imports every new file of
the chosen format dropped into DIR.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdminImport,
}

var adminBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot every document",
	Args:  cobra.NoArgs,
	RunE:  runAdminBackup,
}

var adminSnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored snapshots",
	Args:  cobra.NoArgs,
	RunE:  runAdminSnapshots,
}

var adminScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run backups and view refreshes on a schedule",
	Long: `Keep running and snapshot the database every --backup-every, and
re-register the analytics views every --views-every. Both tasks run once
on start. An interval of 0 disables the task.

Example:
  couchlab admin schedule --backup-every 6h --views-every 30m`,
	Args: cobra.NoArgs,
	RunE: runAdminSchedule,
}

var adminRestoreCmd = &cobra.Command{
	Use:   "restore [snapshot-id]",
	Short: "Load a snapshot back into the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminRestore,
}

// Flags for admin commands.
var (
	adminRole           string
	adminPassword       string
	adminAnalyst        string
	adminFormat         string
	adminKind           string
	adminOutput         string
	adminUpdateExisting bool
	adminWatchDir       string
	adminBackupEvery    time.Duration
	adminViewsEvery     time.Duration
)

func init() {
	adminUserCmd.Flags().StringVar(&adminRole, "role", domain.RoleAnalyst, "Role: admin or analyst")
	adminUserCmd.Flags().StringVar(&adminPassword, "password", "", "Password (prompted when empty)")

	adminSecurityCmd.Flags().StringVar(&adminAnalyst, "analyst", "", "Analyst user (default from settings)")

	adminExportCmd.Flags().StringVar(&adminFormat, "format", string(domain.FormatJSON), "Output format: json, csv or yaml")
	adminExportCmd.Flags().StringVar(&adminKind, "kind", "", "Only export one kind")
	adminExportCmd.Flags().StringVarP(&adminOutput, "output", "o", "", "Output file (- for stdout, default a timestamped file)")

	adminImportCmd.Flags().StringVar(&adminFormat, "format", "", "Input format (default from the file extension)")
	adminImportCmd.Flags().BoolVar(&adminUpdateExisting, "update-existing", false, "Keep revisions to overwrite existing documents")
	adminImportCmd.Flags().StringVar(&adminWatchDir, "watch", "", "Watch a directory and import new files")

	defaults := domain.DefaultSchedulerConfig()
	adminScheduleCmd.Flags().DurationVar(&adminBackupEvery, "backup-every",
		defaults.GetTaskConfig(domain.TaskIDBackup).Interval, "Backup interval (0 disables)")
	adminScheduleCmd.Flags().DurationVar(&adminViewsEvery, "views-every",
		defaults.GetTaskConfig(domain.TaskIDRefreshViews).Interval, "View refresh interval (0 disables)")

	adminCmd.AddCommand(adminUserCmd)
	adminCmd.AddCommand(adminSecurityCmd)
	adminCmd.AddCommand(adminExportCmd)
	adminCmd.AddCommand(adminImportCmd)
	adminCmd.AddCommand(adminBackupCmd)
	adminCmd.AddCommand(adminSnapshotsCmd)
	adminCmd.AddCommand(adminRestoreCmd)
	adminCmd.AddCommand(adminScheduleCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminUser(cmd *cobra.Command, args []string) error {
	if adminService == nil {
		return notConfigured("admin")
	}

	var roles []string
	switch adminRole {
	case domain.RoleAdmin:
		roles = []string{domain.RoleAdmin}
	case domain.RoleAnalyst:
		roles = []string{domain.RoleAnalyst, domain.RoleReader}
	default:
		return fmt.Errorf("invalid role %q: use admin or analyst", adminRole)
	}

	password := adminPassword
	if password == "" {
		cmd.Printf("Password for %s: ", args[0])
		password = readPassword()
		cmd.Println()
	}

	user := domain.User{Name: args[0], Password: password, Roles: roles}
	result := adminService.CreateUser(commandContext(cmd), user)
	return emit(cmd, result, nil)
}

func runAdminSecurity(cmd *cobra.Command, _ []string) error {
	if adminService == nil {
		return notConfigured("admin")
	}

	adminUser := ""
	analyst := adminAnalyst
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			adminUser = s.Connection.User
			if analyst == "" {
				analyst = s.Admin.AnalystUser
			}
		}
	}

	result := adminService.ApplySecurity(commandContext(cmd), adminUser, analyst)
	return emit(cmd, result, func(sec domain.SecurityDoc) {
		cmd.Printf("Admins:  names %v  roles %v\n", sec.Admins.Names, sec.Admins.Roles)
		cmd.Printf("Members: names %v  roles %v\n", sec.Members.Names, sec.Members.Roles)
	})
}

func runAdminExport(cmd *cobra.Command, _ []string) error {
	if adminService == nil {
		return notConfigured("admin")
	}

	format, err := domain.ParseExportFormat(adminFormat)
	if err != nil {
		return err
	}
	var kind domain.Kind
	if adminKind != "" {
		if kind, err = domain.ParseKind(adminKind); err != nil {
			return err
		}
	}

	var w io.Writer
	switch adminOutput {
	case "-":
		w = cmd.OutOrStdout()
	default:
		path := adminOutput
		if path == "" {
			path = exportFileName(format, time.Now())
		}
		f, err := os.Create(path) //nolint:gosec // user-chosen output path
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	result := adminService.Export(commandContext(cmd), w, format, kind)
	if adminOutput == "-" {
		// Keep stdout clean for the exported data.
		if !result.Success {
			return result.Err()
		}
		cmd.PrintErrln(result.Message)
		return nil
	}
	return emit(cmd, result, func(r domain.ExportReport) {
		cmd.Printf("Exported %d documents to %s\n", r.DocumentCount, r.Path)
	})
}

func runAdminImport(cmd *cobra.Command, args []string) error {
	if adminService == nil {
		return notConfigured("admin")
	}

	if adminWatchDir != "" {
		return watchImports(cmd)
	}
	if len(args) == 0 {
		return errors.New("provide a file to import, or --watch DIR")
	}

	path := args[0]
	format, err := importFormat(path)
	if err != nil {
		return err
	}

	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path) //nolint:gosec // user-chosen input path
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	result := adminService.Import(commandContext(cmd), r, driving.ImportOptions{
		Format:         format,
		UpdateExisting: adminUpdateExisting,
		Source:         path,
	})
	return emit(cmd, result, func(rep domain.ImportReport) {
		printImportReport(cmd, rep)
	})
}

func watchImports(cmd *cobra.Command) error {
	format := domain.FormatJSON
	if adminFormat != "" {
		f, err := domain.ParseExportFormat(adminFormat)
		if err != nil {
			return err
		}
		format = f
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	cmd.Printf("Watching %s for new %s files (Ctrl+C to stop)\n", adminWatchDir, format)
	return adminService.WatchImports(ctx, adminWatchDir, format, func(r domain.Result[domain.ImportReport]) {
		if jsonOutput {
			_ = writeJSON(cmd.OutOrStdout(), r) //nolint:errcheck // best-effort progress output
			return
		}
		if !r.Success {
			cmd.PrintErrf("Import failed: %s\n", r.Err())
			return
		}
		printImportReport(cmd, r.Data)
	})
}

func printImportReport(cmd *cobra.Command, r domain.ImportReport) {
	cmd.Printf("Imported %s: %d of %d documents", r.Path, r.SuccessCount, r.TotalDocuments)
	if r.ErrorCount > 0 {
		cmd.Printf(", %d failed", r.ErrorCount)
	}
	cmd.Println()
}

func runAdminBackup(cmd *cobra.Command, _ []string) error {
	if adminService == nil {
		return notConfigured("admin")
	}

	result := adminService.Backup(commandContext(cmd))
	return emit(cmd, result, func(s domain.Snapshot) {
		cmd.Printf("Snapshot %s: %d documents from %s\n", s.ID, s.DocumentCount, s.Database)
	})
}

func runAdminSnapshots(cmd *cobra.Command, _ []string) error {
	if adminService == nil {
		return notConfigured("admin")
	}

	result := adminService.Snapshots(commandContext(cmd))
	return emit(cmd, result, func(snaps []domain.Snapshot) {
		if len(snaps) == 0 {
			cmd.Println("No snapshots")
			return
		}
		for _, s := range snaps {
			cmd.Printf("  %s  %s  %-16s %6d documents  %s\n",
				s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Database, s.DocumentCount, s.ServerURL)
		}
	})
}

func runAdminRestore(cmd *cobra.Command, args []string) error {
	if adminService == nil {
		return notConfigured("admin")
	}

	result := adminService.Restore(commandContext(cmd), args[0])
	return emit(cmd, result, func(rep domain.ImportReport) {
		printImportReport(cmd, rep)
	})
}

func runAdminSchedule(cmd *cobra.Command, _ []string) error {
	if newScheduler == nil {
		return notConfigured("scheduler")
	}

	cfg := domain.SchedulerConfig{TaskConfigs: map[string]domain.TaskConfig{
		domain.TaskIDBackup:       {Enabled: adminBackupEvery > 0, Interval: adminBackupEvery},
		domain.TaskIDRefreshViews: {Enabled: adminViewsEvery > 0, Interval: adminViewsEvery},
	}}
	scheduler := newScheduler(cfg)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	cmd.Println("Scheduler running (Ctrl+C to stop)")
	err := scheduler.Start(ctx, func(r domain.TaskResult) {
		if jsonOutput {
			_ = writeJSON(cmd.OutOrStdout(), r) //nolint:errcheck // best-effort progress output
			return
		}
		if !r.Success {
			cmd.PrintErrf("%s  %s failed: %s\n", r.EndedAt.Format(time.DateTime), r.TaskID, r.Error)
			return
		}
		cmd.Printf("%s  %s done in %s", r.EndedAt.Format(time.DateTime), r.TaskID, r.EndedAt.Sub(r.StartedAt).Round(time.Millisecond))
		if r.ItemsProcessed > 0 {
			cmd.Printf(", %d documents", r.ItemsProcessed)
		}
		cmd.Println()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// importFormat resolves --format, falling back to the file extension.
func importFormat(path string) (domain.ExportFormat, error) {
	if adminFormat != "" {
		return domain.ParseExportFormat(adminFormat)
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || path == "-" {
		return domain.FormatJSON, nil
	}
	if ext == "yml" {
		ext = "yaml"
	}
	return domain.ParseExportFormat(ext)
}

func exportFileName(format domain.ExportFormat, now time.Time) string {
	return fmt.Sprintf("couchlab_export_%s.%s", now.Format("20060102_150405"), format)
}
