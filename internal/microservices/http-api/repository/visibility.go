package repository

import (
	"context"
	"errors"
	"fmt"

	"libhub/internal/shared"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// View names one of the two partitions over a soft-deleted table.
type View int

const (
	ViewLive View = iota
	ViewDeleted
)

func (v View) String() string {
	if v == ViewDeleted {
		return "deleted"
	}
	return "live"
}

// Scope returns the gorm scope that restricts a query to the view.
func (v View) Scope() func(*gorm.DB) *gorm.DB {
	if v == ViewDeleted {
		return Deleted
	}
	return Live
}

// Live restricts a query to rows that have not been soft-deleted.
// Every read of "current" data goes through this scope.
func Live(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

// Deleted restricts a query to soft-deleted rows.
func Deleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", true)
}

// findIn loads one row by id from the given view.
// forUpdate takes a row lock and only makes sense inside a transaction.
func findIn[T any](ctx context.Context, db *gorm.DB, view View, id int64, forUpdate bool) (*T, error) {
	var row T
	q := db.WithContext(ctx).Scopes(view.Scope())
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// listIn loads every row of the view matching the optional condition, ordered by id.
func listIn[T any](ctx context.Context, db *gorm.DB, view View, query string, args ...any) ([]T, error) {
	return list[T](db.WithContext(ctx).Scopes(view.Scope()), query, args...)
}

// lockLiveIn is listIn over the live view with a row lock on every match.
// Rows come back in id order so concurrent lockers queue in the same order.
func lockLiveIn[T any](ctx context.Context, db *gorm.DB, query string, args ...any) ([]T, error) {
	q := db.WithContext(ctx).Scopes(Live).Clauses(clause.Locking{Strength: "UPDATE"})
	return list[T](q, query, args...)
}

func list[T any](q *gorm.DB, query string, args ...any) ([]T, error) {
	var rows []T
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// markDeleted flips is_deleted for the given ids. Rows already deleted are left
// untouched, so repeated or overlapping calls converge on the same state.
func markDeleted[T any](ctx context.Context, db *gorm.DB, column string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).
		Model(new(T)).
		Scopes(Live).
		Where(column+" IN ?", ids).
		Update("is_deleted", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// updateLive writes the given columns of a live row. Zero rows affected means the
// row is missing or deleted.
func updateLive[T any](ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error {
	result := db.WithContext(ctx).
		Model(new(T)).
		Scopes(Live).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", shared.ErrNotFound, err)
	}
	return err
}
