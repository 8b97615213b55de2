package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the three entity repositories over one connection so a multi-row
// mutation can run them inside a single transaction.
type Store interface {
	Authors() AuthorRepository
	Series() SeriesRepository
	Books() BookRepository
	// Transaction runs fn against a Store bound to one database transaction.
	// A non-nil error from fn rolls the whole batch back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db      *gorm.DB
	authors AuthorRepository
	series  SeriesRepository
	books   BookRepository
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:      db,
		authors: NewAuthorRepository(db),
		series:  NewSeriesRepository(db),
		books:   NewBookRepository(db),
	}
}

func (s *gormStore) Authors() AuthorRepository { return s.authors }
func (s *gormStore) Series() SeriesRepository  { return s.series }
func (s *gormStore) Books() BookRepository     { return s.books }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
