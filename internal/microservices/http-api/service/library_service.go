package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"libhub/internal/microservices/http-api/dto"
	"libhub/internal/microservices/http-api/models"
	"libhub/internal/microservices/http-api/repository"
	"libhub/internal/shared"
)

// ErrConfirmationRequired is returned by ExecuteDelete when the submission does not
// carry the explicit confirmation flag. Nothing has been changed.
var ErrConfirmationRequired = errors.New("delete requires confirmation")

// LibraryService is the set of operations the routing layer calls, one per case.
// Every method takes the acting identity explicitly and fails with
// shared.ErrUnauthorized when it is anonymous.
type LibraryService interface {
	ListAuthors(ctx context.Context, actor shared.Identity) (*dto.PageContext, error)
	ShowAuthor(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error)
	ShowSeries(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error)
	ShowBook(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error)

	NewAuthorForm(ctx context.Context, actor shared.Identity) (*dto.PageContext, error)
	NewSeriesForm(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error)
	NewBookForm(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error)

	CreateAuthor(ctx context.Context, actor shared.Identity, form dto.FormPayload) (*dto.MutationResult, error)
	CreateSeries(ctx context.Context, actor shared.Identity, ids PathIDs, form dto.FormPayload) (*dto.MutationResult, error)
	CreateBook(ctx context.Context, actor shared.Identity, ids PathIDs, form dto.FormPayload) (*dto.MutationResult, error)

	EditForm(ctx context.Context, actor shared.Identity, ids PathIDs, tag string) (*dto.PageContext, error)
	Edit(ctx context.Context, actor shared.Identity, ids PathIDs, tag string, form dto.FormPayload) (*dto.MutationResult, error)

	ConfirmDelete(ctx context.Context, actor shared.Identity, ids PathIDs, tag string) (*dto.PageContext, error)
	ExecuteDelete(ctx context.Context, actor shared.Identity, ids PathIDs, tag string, form dto.FormPayload) (*dto.MutationResult, error)
}

type libraryService struct {
	store    repository.Store
	resolver PathResolver
	cascade  CascadeEngine
	logger   *slog.Logger
}

func NewLibraryService(store repository.Store, logger *slog.Logger) LibraryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &libraryService{
		store:    store,
		resolver: NewPathResolver(store),
		cascade:  NewCascadeEngine(store, logger),
		logger:   logger,
	}
}

func requireActor(actor shared.Identity) error {
	if actor.IsAnonymous() {
		return shared.ErrUnauthorized
	}
	return nil
}

// resolveAt resolves a path that must name exactly the given depth.
func (s *libraryService) resolveAt(ctx context.Context, ids PathIDs, depth Level) (*ResolvedPath, error) {
	if ids.Depth() != depth {
		return nil, fmt.Errorf("%w: expected a %s path", shared.ErrNotFound, depth)
	}
	return s.resolver.Resolve(ctx, ids)
}

func (s *libraryService) ListAuthors(ctx context.Context, actor shared.Identity) (*dto.PageContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	authors, err := s.store.Authors().ListLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return &dto.PageContext{Title: "Authors", Authors: nonNil(authors)}, nil
}

func (s *libraryService) ShowAuthor(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	path, err := s.resolveAt(ctx, ids, LevelAuthor)
	if err != nil {
		return nil, err
	}
	series, err := s.store.Series().ListLiveByAuthor(ctx, path.Author.ID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return &dto.PageContext{
		Title:      "Author",
		Author:     path.Author,
		SeriesList: nonNil(series),
	}, nil
}

func (s *libraryService) ShowSeries(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	path, err := s.resolveAt(ctx, ids, LevelSeries)
	if err != nil {
		return nil, err
	}
	books, err := s.store.Books().ListLiveBySeries(ctx, path.Series.ID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return &dto.PageContext{
		Title:  "Series",
		Author: path.Author,
		Series: path.Series,
		Books:  nonNil(books),
	}, nil
}

func (s *libraryService) ShowBook(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	path, err := s.resolveAt(ctx, ids, LevelBook)
	if err != nil {
		return nil, err
	}
	return &dto.PageContext{
		Title:  "Book",
		Author: path.Author,
		Series: path.Series,
		Book:   path.Book,
	}, nil
}

func (s *libraryService) NewAuthorForm(ctx context.Context, actor shared.Identity) (*dto.PageContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return &dto.PageContext{
		Title: "Add author",
		Back:  &dto.BackNav{Authors: true},
		Form:  dto.FormPayload{},
	}, nil
}

func (s *libraryService) NewSeriesForm(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	path, err := s.resolveAt(ctx, ids, LevelAuthor)
	if err != nil {
		return nil, err
	}
	return &dto.PageContext{
		Title:  "Add series",
		Back:   backFor(LevelAuthor),
		Author: path.Author,
		Form:   dto.FormPayload{},
	}, nil
}

func (s *libraryService) NewBookForm(ctx context.Context, actor shared.Identity, ids PathIDs) (*dto.PageContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	path, err := s.resolveAt(ctx, ids, LevelSeries)
	if err != nil {
		return nil, err
	}
	return &dto.PageContext{
		Title:  "Add book",
		Back:   backFor(LevelSeries),
		Author: path.Author,
		Series: path.Series,
		Form:   dto.FormPayload{},
	}, nil
}

func (s *libraryService) CreateAuthor(ctx context.Context, actor shared.Identity, form dto.FormPayload) (*dto.MutationResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in, err := dto.DecodeAuthorInput(form)
	if err != nil {
		return nil, err
	}

	author := newAuthor(actor, in)
	if err := s.store.Authors().Create(ctx, author); err != nil {
		return nil, err
	}
	s.logger.Info("author created", "author_id", author.ID, "user_id", string(actor))
	return &dto.MutationResult{Location: dto.AuthorsURL(), Author: author}, nil
}

// CreateSeries rejects an unresolvable path before anything is written, then
// re-locks the parent inside the creating transaction so a concurrent cascade
// cannot leave the new series live under a deleted author.
func (s *libraryService) CreateSeries(ctx context.Context, actor shared.Identity, ids PathIDs, form dto.FormPayload) (*dto.MutationResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	path, err := s.resolveAt(ctx, ids, LevelAuthor)
	if err != nil {
		return nil, err
	}
	in, err := dto.DecodeWorkInput(form)
	if err != nil {
		return nil, err
	}

	var series *models.Series
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		parent, err := tx.Authors().LockLive(ctx, path.Author.ID)
		if err != nil {
			return err
		}
		series = newSeries(actor, parent, in)
		return tx.Series().Create(ctx, series)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("series created", "series_id", series.ID, "author_id", path.Author.ID)
	return &dto.MutationResult{Location: dto.AuthorURL(path.Author.ID), Series: series}, nil
}

func (s *libraryService) CreateBook(ctx context.Context, actor shared.Identity, ids PathIDs, form dto.FormPayload) (*dto.MutationResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	path, err := s.resolveAt(ctx, ids, LevelSeries)
	if err != nil {
		return nil, err
	}
	in, err := dto.DecodeWorkInput(form)
	if err != nil {
		return nil, err
	}

	var book *models.Book
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		parent, err := tx.Series().LockLive(ctx, path.Series.ID)
		if err != nil {
			return err
		}
		book = newBook(actor, parent, in)
		return tx.Books().Create(ctx, book)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("book created", "book_id", book.ID, "series_id", path.Series.ID)
	return &dto.MutationResult{
		Location: dto.SeriesURL(path.Author.ID, path.Series.ID),
		Book:     book,
	}, nil
}

func (s *libraryService) EditForm(ctx context.Context, actor shared.Identity, ids PathIDs, tag string) (*dto.PageContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	level, path, err := s.resolver.ResolveTarget(ctx, tag, ids)
	if err != nil {
		return nil, err
	}

	page := &dto.PageContext{
		Title:     "Edit " + level.String(),
		Back:      backFor(path.Depth()),
		Author:    path.Author,
		Series:    path.Series,
		Book:      path.Book,
		EditLevel: level.String(),
	}
	switch level {
	case LevelAuthor:
		page.Form = dto.FormFromAuthor(path.Author)
	case LevelSeries:
		page.Form = dto.FormFromSeries(path.Series)
	case LevelBook:
		page.Form = dto.FormFromBook(path.Book)
	}
	return page, nil
}

// Edit updates the target-level entity of the path. The deleted flag is never
// part of an edit.
func (s *libraryService) Edit(ctx context.Context, actor shared.Identity, ids PathIDs, tag string, form dto.FormPayload) (*dto.MutationResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	level, path, err := s.resolver.ResolveTarget(ctx, tag, ids)
	if err != nil {
		return nil, err
	}

	res := &dto.MutationResult{Location: viewURL(path)}
	switch level {
	case LevelAuthor:
		in, err := dto.DecodeAuthorInput(form)
		if err != nil {
			return nil, err
		}
		author := *path.Author
		author.Name = in.Name
		if err := s.store.Authors().Update(ctx, &author); err != nil {
			return nil, err
		}
		res.Author = &author
	case LevelSeries:
		in, err := dto.DecodeWorkInput(form)
		if err != nil {
			return nil, err
		}
		series := *path.Series
		series.Name, series.Rating, series.IsCompleted, series.Description = in.Name, in.Rating, in.IsCompleted, in.Description
		if err := s.store.Series().Update(ctx, &series); err != nil {
			return nil, err
		}
		res.Series = &series
	case LevelBook:
		in, err := dto.DecodeWorkInput(form)
		if err != nil {
			return nil, err
		}
		book := *path.Book
		book.Name, book.Rating, book.IsCompleted, book.Description = in.Name, in.Rating, in.IsCompleted, in.Description
		if err := s.store.Books().Update(ctx, &book); err != nil {
			return nil, err
		}
		res.Book = &book
	}

	s.logger.Info("entity edited", "level", level.String(), "author_id", path.Author.ID, "user_id", string(actor))
	return res, nil
}

// ConfirmDelete renders what a delete would remove. It never mutates.
func (s *libraryService) ConfirmDelete(ctx context.Context, actor shared.Identity, ids PathIDs, tag string) (*dto.PageContext, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	level, path, err := s.resolver.ResolveTarget(ctx, tag, ids)
	if err != nil {
		return nil, err
	}

	page := &dto.PageContext{
		Title:       "Delete " + level.String(),
		Author:      path.Author,
		Series:      path.Series,
		Book:        path.Book,
		DeleteLevel: level.String(),
	}
	switch level {
	case LevelAuthor:
		series, err := s.store.Series().ListLiveByAuthor(ctx, path.Author.ID)
		if err != nil {
			return nil, fmt.Errorf("list series: %w", err)
		}
		page.SeriesList = nonNil(series)
	case LevelSeries:
		books, err := s.store.Books().ListLiveBySeries(ctx, path.Series.ID)
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		page.Books = nonNil(books)
	}
	return page, nil
}

// ExecuteDelete applies the cascade for the target level once the submission
// confirms it. Replaying a delete whose target is already deleted succeeds with
// the same redirect and changes nothing.
func (s *libraryService) ExecuteDelete(ctx context.Context, actor shared.Identity, ids PathIDs, tag string, form dto.FormPayload) (*dto.MutationResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	level, err := ParseLevel(tag)
	if err != nil {
		return nil, err
	}
	if !form.Confirmed() {
		return nil, ErrConfirmationRequired
	}

	_, path, err := s.resolver.ResolveTarget(ctx, tag, ids)
	if errors.Is(err, shared.ErrNotFound) {
		tomb, terr := s.resolver.ResolveTombstone(ctx, level, ids)
		if terr != nil {
			return nil, err
		}
		s.logger.Info("delete replayed on deleted target", "level", level.String(), "author_id", tomb.Author.ID)
		return &dto.MutationResult{Location: parentURL(level, tomb)}, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.cascade.Delete(ctx, level, path); err != nil {
		return nil, fmt.Errorf("cascade delete: %w", err)
	}
	return &dto.MutationResult{Location: parentURL(level, path)}, nil
}

func backFor(depth Level) *dto.BackNav {
	switch depth {
	case LevelSeries:
		return &dto.BackNav{Series: true}
	case LevelBook:
		return &dto.BackNav{Book: true}
	}
	return &dto.BackNav{Author: true}
}

// viewURL is the page of the deepest entity in the path.
func viewURL(path *ResolvedPath) string {
	switch path.Depth() {
	case LevelBook:
		return dto.BookURL(path.Author.ID, path.Series.ID, path.Book.ID)
	case LevelSeries:
		return dto.SeriesURL(path.Author.ID, path.Series.ID)
	}
	return dto.AuthorURL(path.Author.ID)
}

// parentURL is where a delete of level lands: the view one level up.
func parentURL(level Level, path *ResolvedPath) string {
	switch level {
	case LevelBook:
		return dto.SeriesURL(path.Author.ID, path.Series.ID)
	case LevelSeries:
		return dto.AuthorURL(path.Author.ID)
	}
	return dto.AuthorsURL()
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
