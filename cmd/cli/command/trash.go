package command

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"libhub/database"
	"libhub/internal/microservices/http-api/repository"
)

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "List soft-deleted authors, series and books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer database.Close(db)

		return printTrash(cmd.Context(), cmd.OutOrStdout(), repository.NewStore(db))
	},
}

func printTrash(ctx context.Context, w io.Writer, store repository.Store) error {
	authors, err := store.Authors().ListDeleted(ctx)
	if err != nil {
		return fmt.Errorf("list deleted authors: %w", err)
	}
	series, err := store.Series().ListDeleted(ctx)
	if err != nil {
		return fmt.Errorf("list deleted series: %w", err)
	}
	books, err := store.Books().ListDeleted(ctx)
	if err != nil {
		return fmt.Errorf("list deleted books: %w", err)
	}

	if len(authors)+len(series)+len(books) == 0 {
		fmt.Fprintln(w, "🗑️  Nothing has been deleted")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tPARENT\tNAME")
	for _, a := range authors {
		fmt.Fprintf(tw, "author\t%d\t-\t%s\n", a.ID, a.Name)
	}
	for _, s := range series {
		fmt.Fprintf(tw, "series\t%d\t%s\t%s\n", s.ID, parentRef(s.AuthorID), s.Name)
	}
	for _, b := range books {
		fmt.Fprintf(tw, "book\t%d\t%s\t%s\n", b.ID, parentRef(b.SeriesID), b.Name)
	}
	return tw.Flush()
}

func parentRef(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprint(*id)
}
