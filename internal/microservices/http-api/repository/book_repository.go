package repository

import (
	"context"
	"fmt"

	"libhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// BookRepository is the entity store for books.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book) error
	FindLive(ctx context.Context, id int64) (*models.Book, error)
	FindDeleted(ctx context.Context, id int64) (*models.Book, error)
	LockLive(ctx context.Context, id int64) (*models.Book, error)
	ListLiveBySeries(ctx context.Context, seriesID int64) ([]models.Book, error)
	ListDeleted(ctx context.Context) ([]models.Book, error)
	MarkDeleted(ctx context.Context, ids ...int64) (int64, error)
	// MarkDeletedInSeries marks every live book of the given series deleted.
	MarkDeletedInSeries(ctx context.Context, seriesIDs ...int64) (int64, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := book.Validate(); err != nil {
		return err
	}
	book.IsDeleted = false
	if err := r.db.WithContext(ctx).Omit("User", "Series").Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	if err := book.Validate(); err != nil {
		return err
	}
	return updateLive[models.Book](ctx, r.db, book.ID, map[string]any{
		"name":         book.Name,
		"rating":       book.Rating,
		"is_completed": book.IsCompleted,
		"description":  book.Description,
	})
}

func (r *bookRepository) FindLive(ctx context.Context, id int64) (*models.Book, error) {
	return findIn[models.Book](ctx, r.db, ViewLive, id, false)
}

func (r *bookRepository) FindDeleted(ctx context.Context, id int64) (*models.Book, error) {
	return findIn[models.Book](ctx, r.db, ViewDeleted, id, false)
}

func (r *bookRepository) LockLive(ctx context.Context, id int64) (*models.Book, error) {
	return findIn[models.Book](ctx, r.db, ViewLive, id, true)
}

func (r *bookRepository) ListLiveBySeries(ctx context.Context, seriesID int64) ([]models.Book, error) {
	return listIn[models.Book](ctx, r.db, ViewLive, "series_id = ?", seriesID)
}

func (r *bookRepository) ListDeleted(ctx context.Context) ([]models.Book, error) {
	return listIn[models.Book](ctx, r.db, ViewDeleted, "")
}

func (r *bookRepository) MarkDeleted(ctx context.Context, ids ...int64) (int64, error) {
	n, err := markDeleted[models.Book](ctx, r.db, "id", ids)
	if err != nil {
		return 0, fmt.Errorf("mark books deleted: %w", err)
	}
	return n, nil
}

func (r *bookRepository) MarkDeletedInSeries(ctx context.Context, seriesIDs ...int64) (int64, error) {
	n, err := markDeleted[models.Book](ctx, r.db, "series_id", seriesIDs)
	if err != nil {
		return 0, fmt.Errorf("mark books of series deleted: %w", err)
	}
	return n, nil
}
