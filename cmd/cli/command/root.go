package command

// root.go defines the root command for the libhubctl application.
// set up the global flags and the shared database handle here.

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"libhub/database"
	"libhub/internal/config"
)

var (
	databaseURL string // overrides DATABASE_URL when set
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "libhubctl",
	Short: "libhubctl - operator tool for the libhub library database",
	Long: `libhubctl talks to the library database directly. Use it to:
- Apply the schema (migrate)
- Print the live author/series/book hierarchy (tree)
- List soft-deleted rows (trash)

Use "libhubctl command --help" to see the flags of each command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres DSN (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(migrateCmd, treeCmd, trashCmd)
}

// openDB loads the service config, applies flag overrides and connects.
func openDB(stderr io.Writer) (*gorm.DB, *slog.Logger, error) {
	if databaseURL != "" {
		os.Setenv("DATABASE_URL", databaseURL)
	}
	// the CLI never issues tokens, so a placeholder keeps LoadConfig satisfied
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "libhubctl")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	logger := config.NewLogger(cfg, stderr)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, logger, nil
}
