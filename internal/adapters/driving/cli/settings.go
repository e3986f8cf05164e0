package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the connection, analytics and administration settings.

Settings are read from defaults, then the config file, then the
COUCHDB_URL, COUCHDB_USER, COUCHDB_PASSWORD, DATABASE_NAME and
ANALYST_USER environment variables.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one setting",
	Long: `Set one setting by its dotted key.

Keys:
  couchdb.url              server base URL
  couchdb.user             user name
  couchdb.password         password
  couchdb.database         database name
  couchdb.rate_limit       requests per second, 0 for no limit
  couchdb.timeout_seconds  request timeout
  analytics.top_n          number of top products
  admin.backup_dir         snapshot directory
  admin.batch_size         export and import page size
  admin.analyst_user       user granted member access`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Configure and test the server connection",
	Long: `Prompt for the server URL, user, password and database, check the
server answers with those values and save them.`,
	Args: cobra.NoArgs,
	RunE: runSettingsConnect,
}

// connectionChecker opens a session with conn and returns the server version.
var connectionChecker func(cmd *cobra.Command, conn domain.ConnectionSettings) (string, error)

// SetConnectionChecker sets the function used by 'settings connect'.
func SetConnectionChecker(fn func(cmd *cobra.Command, conn domain.ConnectionSettings) (string, error)) {
	connectionChecker = fn
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsConnectCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if jsonOutput {
		masked := *settings
		masked.Connection.Password = maskSecret(masked.Connection.Password)
		return writeJSON(cmd.OutOrStdout(), masked)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[CouchDB]")
	cmd.Printf("  URL:        %s\n", settings.Connection.URL)
	cmd.Printf("  User:       %s\n", settings.Connection.User)
	if settings.Connection.Password != "" {
		cmd.Printf("  Password:   %s\n", maskSecret(settings.Connection.Password))
	} else {
		cmd.Printf("  Password:   (not set)\n")
	}
	cmd.Printf("  Database:   %s\n", settings.Connection.Database)
	if settings.Connection.RateLimit > 0 {
		cmd.Printf("  Rate limit: %g req/s\n", settings.Connection.RateLimit)
	} else {
		cmd.Printf("  Rate limit: none\n")
	}
	cmd.Printf("  Timeout:    %s\n", settings.Connection.Timeout)
	cmd.Println()

	cmd.Println("[Analytics]")
	cmd.Printf("  Top products: %d\n", settings.Analytics.TopN)
	cmd.Println()

	cmd.Println("[Admin]")
	cmd.Printf("  Backup directory: %s\n", valueOr(settings.Admin.BackupDir, "(default)"))
	cmd.Printf("  Batch size:       %d\n", settings.Admin.BatchSize)
	cmd.Printf("  Analyst user:     %s\n", valueOr(settings.Admin.AnalystUser, "(not set)"))
	cmd.Println()

	if path := settingsService.Path(); path != "" {
		cmd.Printf("Config file: %s\n", path)
	}
	if err := settings.Connection.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'couchlab settings connect' to fix the connection settings.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsConnect(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	conn := settings.Connection

	cmd.Println("CouchDB Connection")
	cmd.Println("==================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())
	conn.URL = prompt(cmd, reader, "Server URL", conn.URL)
	conn.User = prompt(cmd, reader, "User", conn.User)
	cmd.Print("Password [keep current]: ")
	if pw := readSecret(cmd.InOrStdin(), reader); pw != "" {
		conn.Password = pw
	}
	cmd.Println()
	conn.Database = prompt(cmd, reader, "Database", conn.Database)

	if err := conn.Validate(); err != nil {
		return err
	}

	if connectionChecker != nil {
		serverVersion, err := connectionChecker(cmd, conn)
		if err != nil {
			return fmt.Errorf("connection check failed: %w", err)
		}
		cmd.Printf("Connected to CouchDB %s\n", serverVersion)
	}

	settings.Connection = conn
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Connection settings saved.")
	return nil
}

// Helper functions.

func prompt(cmd *cobra.Command, reader *bufio.Reader, label, current string) string {
	cmd.Printf("%s [%s]: ", label, current)
	if input := readLine(reader); input != "" {
		return input
	}
	return current
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readSecret reads without echo when in is a terminal.
func readSecret(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if pw, err := term.ReadPassword(int(f.Fd())); err == nil {
			return string(pw)
		}
	}
	return readLine(reader)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:2] + "..." + secret[len(secret)-2:]
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// watchSettings calls onChange with fresh settings whenever the config
// file changes, until the command context ends.
func watchSettings(cmd *cobra.Command, onChange func(*domain.AppSettings)) {
	if configWatcher == nil || settingsService == nil {
		return
	}
	go func() {
		err := configWatcher(commandContext(cmd), func() {
			s, err := settingsService.Get()
			if err != nil {
				return
			}
			onChange(s)
		})
		if err != nil {
			cmd.PrintErrf("config watch stopped: %v\n", err)
		}
	}()
}
