package command

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"libhub/database"
	"libhub/internal/microservices/http-api/dto"
	"libhub/internal/microservices/http-api/repository"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the live author/series/book hierarchy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer database.Close(db)

		return printTree(cmd.Context(), cmd.OutOrStdout(), repository.NewStore(db))
	},
}

// printTree walks the live view only; deleted rows and everything under them
// are left out.
func printTree(ctx context.Context, w io.Writer, store repository.Store) error {
	authors, err := store.Authors().ListLive(ctx)
	if err != nil {
		return fmt.Errorf("list authors: %w", err)
	}
	if len(authors) == 0 {
		fmt.Fprintln(w, "📚 The library is empty")
		return nil
	}

	for _, a := range authors {
		fmt.Fprintf(w, "%s (ID: %d)\n", a.Name, a.ID)

		series, err := store.Series().ListLiveByAuthor(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("list series of author %d: %w", a.ID, err)
		}
		for _, s := range series {
			fmt.Fprintf(w, "  %s (ID: %d, rating %d, %s)\n", s.Name, s.ID, s.Rating, dto.CompletionLabel(s.IsCompleted))

			books, err := store.Books().ListLiveBySeries(ctx, s.ID)
			if err != nil {
				return fmt.Errorf("list books of series %d: %w", s.ID, err)
			}
			for _, b := range books {
				fmt.Fprintf(w, "    %s (ID: %d, rating %d, %s)\n", b.Name, b.ID, b.Rating, dto.CompletionLabel(b.IsCompleted))
			}
		}
	}
	return nil
}
