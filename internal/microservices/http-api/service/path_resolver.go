package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"libhub/internal/microservices/http-api/models"
	"libhub/internal/microservices/http-api/repository"
	"libhub/internal/shared"
)

// Level identifies which entity of a path an edit or delete acts on.
type Level int

const (
	LevelAuthor Level = iota + 1
	LevelSeries
	LevelBook
)

func (l Level) String() string {
	switch l {
	case LevelAuthor:
		return "author"
	case LevelSeries:
		return "series"
	case LevelBook:
		return "book"
	}
	return "unknown"
}

// ParseLevel accepts exactly "author", "series" or "book". Any other tag is
// reported as ErrNotFound so it is indistinguishable from a missing path.
func ParseLevel(tag string) (Level, error) {
	switch tag {
	case "author":
		return LevelAuthor, nil
	case "series":
		return LevelSeries, nil
	case "book":
		return LevelBook, nil
	}
	return 0, fmt.Errorf("%w: unknown target level %q", shared.ErrNotFound, tag)
}

// PathIDs are the identifiers named by a request target. SeriesID and BookID are
// nil when the path stops above that level.
type PathIDs struct {
	AuthorID int64
	SeriesID *int64
	BookID   *int64
}

// Depth is the deepest level the path names.
func (p PathIDs) Depth() Level {
	switch {
	case p.BookID != nil:
		return LevelBook
	case p.SeriesID != nil:
		return LevelSeries
	}
	return LevelAuthor
}

// ParsePathIDs converts routing parameters into PathIDs. Empty series/book values
// mean the level is absent; anything non-numeric is ErrNotFound.
func ParsePathIDs(authorID, seriesID, bookID string) (PathIDs, error) {
	var ids PathIDs
	a, err := parseID(authorID)
	if err != nil {
		return ids, err
	}
	ids.AuthorID = a

	if strings.TrimSpace(seriesID) != "" {
		s, err := parseID(seriesID)
		if err != nil {
			return ids, err
		}
		ids.SeriesID = &s
	}
	if strings.TrimSpace(bookID) != "" {
		b, err := parseID(bookID)
		if err != nil {
			return ids, err
		}
		ids.BookID = &b
	}
	return ids, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid identifier %q", shared.ErrNotFound, raw)
	}
	return id, nil
}

// ResolvedPath holds the live entities a path resolved to.
type ResolvedPath struct {
	Author *models.Author
	Series *models.Series
	Book   *models.Book
}

// Depth is the deepest level present in the resolved path.
func (p *ResolvedPath) Depth() Level {
	switch {
	case p.Book != nil:
		return LevelBook
	case p.Series != nil:
		return LevelSeries
	}
	return LevelAuthor
}

// PathResolver validates that a chain of identifiers forms a live
// ancestor/descendant relationship.
type PathResolver interface {
	// Resolve walks author -> series -> book through the live view, checking each
	// child's stored parent against the path's claimed parent.
	Resolve(ctx context.Context, ids PathIDs) (*ResolvedPath, error)
	// ResolveTarget validates the target-level tag against the path before resolving it.
	ResolveTarget(ctx context.Context, tag string, ids PathIDs) (Level, *ResolvedPath, error)
	// ResolveTombstone succeeds only when the chain exists, its target-level
	// entity is already soft-deleted and every level above it is still live.
	// Used to recognise a replayed delete.
	ResolveTombstone(ctx context.Context, level Level, ids PathIDs) (*ResolvedPath, error)
}

type pathResolver struct {
	store repository.Store
}

func NewPathResolver(store repository.Store) PathResolver {
	return &pathResolver{store: store}
}

func (r *pathResolver) Resolve(ctx context.Context, ids PathIDs) (*ResolvedPath, error) {
	if ids.BookID != nil && ids.SeriesID == nil {
		return nil, fmt.Errorf("%w: book %d without series", shared.ErrNotFound, *ids.BookID)
	}

	author, err := r.store.Authors().FindLive(ctx, ids.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("resolve author %d: %w", ids.AuthorID, err)
	}
	path := &ResolvedPath{Author: author}
	if ids.SeriesID == nil {
		return path, nil
	}

	series, err := r.store.Series().FindLive(ctx, *ids.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("resolve series %d: %w", *ids.SeriesID, err)
	}
	if !series.BelongsTo(author.ID) {
		return nil, fmt.Errorf("%w: series %d is not under author %d", shared.ErrNotFound, series.ID, author.ID)
	}
	path.Series = series
	if ids.BookID == nil {
		return path, nil
	}

	book, err := r.store.Books().FindLive(ctx, *ids.BookID)
	if err != nil {
		return nil, fmt.Errorf("resolve book %d: %w", *ids.BookID, err)
	}
	if !book.BelongsTo(series.ID) {
		return nil, fmt.Errorf("%w: book %d is not under series %d", shared.ErrNotFound, book.ID, series.ID)
	}
	path.Book = book
	return path, nil
}

func (r *pathResolver) ResolveTarget(ctx context.Context, tag string, ids PathIDs) (Level, *ResolvedPath, error) {
	level, err := ParseLevel(tag)
	if err != nil {
		return 0, nil, err
	}
	if level > ids.Depth() {
		return 0, nil, fmt.Errorf("%w: target %s is deeper than the path", shared.ErrNotFound, level)
	}
	path, err := r.Resolve(ctx, ids)
	if err != nil {
		return 0, nil, err
	}
	return level, path, nil
}

func (r *pathResolver) ResolveTombstone(ctx context.Context, level Level, ids PathIDs) (*ResolvedPath, error) {
	if level > ids.Depth() || (ids.BookID != nil && ids.SeriesID == nil) {
		return nil, shared.ErrNotFound
	}

	author, authorLive, err := findAny(ctx, ids.AuthorID, r.store.Authors().FindLive, r.store.Authors().FindDeleted)
	if err != nil {
		return nil, err
	}
	path := &ResolvedPath{Author: author}
	deleted := map[Level]bool{LevelAuthor: !authorLive}

	if ids.SeriesID != nil {
		series, live, err := findAny(ctx, *ids.SeriesID, r.store.Series().FindLive, r.store.Series().FindDeleted)
		if err != nil {
			return nil, err
		}
		if !series.BelongsTo(author.ID) {
			return nil, shared.ErrNotFound
		}
		path.Series = series
		deleted[LevelSeries] = !live
	}
	if ids.BookID != nil {
		book, live, err := findAny(ctx, *ids.BookID, r.store.Books().FindLive, r.store.Books().FindDeleted)
		if err != nil {
			return nil, err
		}
		if !book.BelongsTo(path.Series.ID) {
			return nil, shared.ErrNotFound
		}
		path.Book = book
		deleted[LevelBook] = !live
	}

	if !deleted[level] {
		return nil, shared.ErrNotFound
	}
	// The redirect goes to the target's parent, so every ancestor must still be live.
	for l := LevelAuthor; l < level; l++ {
		if deleted[l] {
			return nil, fmt.Errorf("%w: %s above the target is deleted", shared.ErrNotFound, l)
		}
	}
	return path, nil
}

// findAny looks a row up in the live view, then in the deleted view, and reports
// which one it came from.
func findAny[T any](
	ctx context.Context,
	id int64,
	live func(context.Context, int64) (*T, error),
	deleted func(context.Context, int64) (*T, error),
) (*T, bool, error) {
	row, err := live(ctx, id)
	if err == nil {
		return row, true, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}
	row, err = deleted(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return row, false, nil
}
