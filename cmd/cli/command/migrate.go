package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"libhub/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the library schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, logger, err := openDB(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Schema is up to date")
		return nil
	},
}
