package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"libhub/internal/microservices/http-api/repository"
	"libhub/internal/shared"
)

// CascadeResult counts the rows a cascade newly marked deleted.
type CascadeResult struct {
	Authors int64
	Series  int64
	Books   int64
}

// CascadeEngine soft-deletes a target entity and every live descendant.
type CascadeEngine interface {
	Delete(ctx context.Context, level Level, path *ResolvedPath) (CascadeResult, error)
}

type cascadeEngine struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCascadeEngine(store repository.Store, logger *slog.Logger) CascadeEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &cascadeEngine{store: store, logger: logger}
}

// Delete walks strictly downward from the target and marks descendants before
// their ancestor, all inside one store transaction. The target row is locked
// first; if a concurrent cascade already deleted it, the call is a no-op.
func (e *cascadeEngine) Delete(ctx context.Context, level Level, path *ResolvedPath) (CascadeResult, error) {
	var res CascadeResult
	if path == nil || path.Author == nil {
		return res, fmt.Errorf("%w: empty path", shared.ErrNotFound)
	}

	err := e.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		switch level {
		case LevelAuthor:
			res, err = deleteAuthor(ctx, tx, path.Author.ID)
		case LevelSeries:
			if path.Series == nil {
				return fmt.Errorf("%w: series missing from path", shared.ErrNotFound)
			}
			res, err = deleteSeries(ctx, tx, path.Series.ID)
		case LevelBook:
			if path.Book == nil {
				return fmt.Errorf("%w: book missing from path", shared.ErrNotFound)
			}
			res, err = deleteBook(ctx, tx, path.Book.ID)
		default:
			return fmt.Errorf("%w: unknown target level", shared.ErrNotFound)
		}
		return err
	})
	if err != nil {
		e.logger.Error("cascade delete failed",
			"level", level.String(),
			"author_id", path.Author.ID,
			"error", err,
		)
		return CascadeResult{}, err
	}

	e.logger.Info("cascade delete applied",
		"level", level.String(),
		"author_id", path.Author.ID,
		"authors", res.Authors,
		"series", res.Series,
		"books", res.Books,
	)
	return res, nil
}

func deleteAuthor(ctx context.Context, tx repository.Store, authorID int64) (CascadeResult, error) {
	var res CascadeResult
	if _, err := tx.Authors().LockLive(ctx, authorID); err != nil {
		return res, alreadyGone(err)
	}

	// Lock the series too: CreateBook locks only its series row, so without this
	// a book could be inserted between marking books and marking series.
	series, err := tx.Series().LockLiveByAuthor(ctx, authorID)
	if err != nil {
		return res, fmt.Errorf("lock series of author %d: %w", authorID, err)
	}
	ids := make([]int64, 0, len(series))
	for _, s := range series {
		ids = append(ids, s.ID)
	}

	if res.Books, err = tx.Books().MarkDeletedInSeries(ctx, ids...); err != nil {
		return res, err
	}
	if res.Series, err = tx.Series().MarkDeleted(ctx, ids...); err != nil {
		return res, err
	}
	if res.Authors, err = tx.Authors().MarkDeleted(ctx, authorID); err != nil {
		return res, err
	}
	return res, nil
}

func deleteSeries(ctx context.Context, tx repository.Store, seriesID int64) (CascadeResult, error) {
	var res CascadeResult
	if _, err := tx.Series().LockLive(ctx, seriesID); err != nil {
		return res, alreadyGone(err)
	}

	var err error
	if res.Books, err = tx.Books().MarkDeletedInSeries(ctx, seriesID); err != nil {
		return res, err
	}
	if res.Series, err = tx.Series().MarkDeleted(ctx, seriesID); err != nil {
		return res, err
	}
	return res, nil
}

func deleteBook(ctx context.Context, tx repository.Store, bookID int64) (CascadeResult, error) {
	var res CascadeResult
	if _, err := tx.Books().LockLive(ctx, bookID); err != nil {
		return res, alreadyGone(err)
	}

	var err error
	if res.Books, err = tx.Books().MarkDeleted(ctx, bookID); err != nil {
		return res, err
	}
	return res, nil
}

// alreadyGone turns "target not live any more" into success: a cascade that
// finished first has produced the same final state.
func alreadyGone(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}
