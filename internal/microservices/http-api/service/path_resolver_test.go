package service

import (
	"context"
	"testing"

	"libhub/internal/microservices/http-api/models"
	"libhub/internal/microservices/http-api/repository/memstore"
	"libhub/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id64(v int64) *int64 { return &v }

// library seeds two authors. Author 1 owns series 3 (books 5, 6) and the
// deleted series 4; author 2 owns series 7 with book 8.
func library(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()

	a1 := store.SeedAuthor(models.Author{Name: "Ursula K. Le Guin"})
	a2 := store.SeedAuthor(models.Author{Name: "Iain M. Banks"})
	s3 := store.SeedSeries(models.Series{Name: "Earthsea", AuthorID: &a1, Rating: 9})
	store.SeedSeries(models.Series{Name: "Hainish", AuthorID: &a1, IsDeleted: true})
	store.SeedBook(models.Book{Name: "A Wizard of Earthsea", SeriesID: &s3})
	store.SeedBook(models.Book{Name: "The Tombs of Atuan", SeriesID: &s3})
	s7 := store.SeedSeries(models.Series{Name: "Culture", AuthorID: &a2})
	store.SeedBook(models.Book{Name: "Consider Phlebas", SeriesID: &s7})

	require.Equal(t, int64(1), a1)
	require.Equal(t, int64(3), s3)
	require.Equal(t, int64(7), s7)
	return store
}

func TestParsePathIDs(t *testing.T) {
	ids, err := ParsePathIDs("1", "3", "5")
	require.NoError(t, err)
	assert.Equal(t, int64(1), ids.AuthorID)
	assert.Equal(t, int64(3), *ids.SeriesID)
	assert.Equal(t, int64(5), *ids.BookID)
	assert.Equal(t, LevelBook, ids.Depth())

	ids, err = ParsePathIDs("1", "", "")
	require.NoError(t, err)
	assert.Nil(t, ids.SeriesID)
	assert.Equal(t, LevelAuthor, ids.Depth())

	for _, raw := range []string{"abc", "0", "-4", "1.5", ""} {
		_, err := ParsePathIDs(raw, "", "")
		assert.ErrorIs(t, err, shared.ErrNotFound, "author id %q", raw)
	}
	_, err = ParsePathIDs("1", "x", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestParseLevel(t *testing.T) {
	for tag, want := range map[string]Level{"author": LevelAuthor, "series": LevelSeries, "book": LevelBook} {
		got, err := ParseLevel(tag)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, tag, got.String())
	}

	for _, tag := range []string{"chapter", "", "Author", "series_book"} {
		_, err := ParseLevel(tag)
		assert.ErrorIs(t, err, shared.ErrNotFound, tag)
	}
}

func TestResolve_LiveChain(t *testing.T) {
	r := NewPathResolver(library(t))

	path, err := r.Resolve(context.Background(), PathIDs{AuthorID: 1, SeriesID: id64(3), BookID: id64(5)})

	require.NoError(t, err)
	assert.Equal(t, "Ursula K. Le Guin", path.Author.Name)
	assert.Equal(t, "Earthsea", path.Series.Name)
	assert.Equal(t, "A Wizard of Earthsea", path.Book.Name)
	assert.Equal(t, LevelBook, path.Depth())
}

func TestResolve_Failures(t *testing.T) {
	store := library(t)
	r := NewPathResolver(store)
	ctx := context.Background()

	cases := map[string]PathIDs{
		"missing author":           {AuthorID: 99},
		"deleted series":           {AuthorID: 1, SeriesID: id64(4)},
		"series of another author": {AuthorID: 2, SeriesID: id64(3)},
		"book of another series":   {AuthorID: 2, SeriesID: id64(7), BookID: id64(5)},
		"book without series":      {AuthorID: 1, BookID: id64(5)},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(ctx, ids)
			assert.ErrorIs(t, err, shared.ErrNotFound)
		})
	}

	t.Run("deleted ancestor hides live descendants", func(t *testing.T) {
		_, err := store.Authors().MarkDeleted(ctx, 2)
		require.NoError(t, err)

		_, err = r.Resolve(ctx, PathIDs{AuthorID: 2, SeriesID: id64(7), BookID: id64(8)})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestResolveTarget(t *testing.T) {
	r := NewPathResolver(library(t))
	ctx := context.Background()

	level, path, err := r.ResolveTarget(ctx, "series", PathIDs{AuthorID: 1, SeriesID: id64(3), BookID: id64(5)})
	require.NoError(t, err)
	assert.Equal(t, LevelSeries, level)
	assert.NotNil(t, path.Book)

	_, _, err = r.ResolveTarget(ctx, "book", PathIDs{AuthorID: 1, SeriesID: id64(3)})
	assert.ErrorIs(t, err, shared.ErrNotFound, "target deeper than the path")

	_, _, err = r.ResolveTarget(ctx, "chapter", PathIDs{AuthorID: 1})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolveTombstone(t *testing.T) {
	store := library(t)
	r := NewPathResolver(store)
	ctx := context.Background()

	t.Run("deleted target with consistent parents", func(t *testing.T) {
		path, err := r.ResolveTombstone(ctx, LevelSeries, PathIDs{AuthorID: 1, SeriesID: id64(4)})
		require.NoError(t, err)
		assert.Equal(t, int64(4), path.Series.ID)
	})

	t.Run("live target is not a tombstone", func(t *testing.T) {
		_, err := r.ResolveTombstone(ctx, LevelSeries, PathIDs{AuthorID: 1, SeriesID: id64(3)})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("deleted target under the wrong parent", func(t *testing.T) {
		_, err := r.ResolveTombstone(ctx, LevelSeries, PathIDs{AuthorID: 2, SeriesID: id64(4)})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing row", func(t *testing.T) {
		_, err := r.ResolveTombstone(ctx, LevelAuthor, PathIDs{AuthorID: 42})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("deleted target under a deleted ancestor", func(t *testing.T) {
		store := library(t)
		_, err := store.Books().MarkDeleted(ctx, 8)
		require.NoError(t, err)
		_, err = store.Authors().MarkDeleted(ctx, 2)
		require.NoError(t, err)

		_, err = NewPathResolver(store).ResolveTombstone(ctx, LevelBook,
			PathIDs{AuthorID: 2, SeriesID: id64(7), BookID: id64(8)})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
