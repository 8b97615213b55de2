package repository

import (
	"context"
	"fmt"

	"libhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// AuthorRepository is the entity store for authors.
type AuthorRepository interface {
	Create(ctx context.Context, author *models.Author) error
	Update(ctx context.Context, author *models.Author) error
	FindLive(ctx context.Context, id int64) (*models.Author, error)
	FindDeleted(ctx context.Context, id int64) (*models.Author, error)
	LockLive(ctx context.Context, id int64) (*models.Author, error)
	ListLive(ctx context.Context) ([]models.Author, error)
	ListDeleted(ctx context.Context) ([]models.Author, error)
	MarkDeleted(ctx context.Context, ids ...int64) (int64, error)
}

type authorRepository struct {
	db *gorm.DB
}

func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

func (r *authorRepository) Create(ctx context.Context, author *models.Author) error {
	if err := author.Validate(); err != nil {
		return err
	}
	author.IsDeleted = false
	if err := r.db.WithContext(ctx).Omit("User").Create(author).Error; err != nil {
		return fmt.Errorf("create author: %w", err)
	}
	return nil
}

// Update writes the editable columns only; is_deleted is never part of an update.
func (r *authorRepository) Update(ctx context.Context, author *models.Author) error {
	if err := author.Validate(); err != nil {
		return err
	}
	return updateLive[models.Author](ctx, r.db, author.ID, map[string]any{
		"name": author.Name,
	})
}

func (r *authorRepository) FindLive(ctx context.Context, id int64) (*models.Author, error) {
	return findIn[models.Author](ctx, r.db, ViewLive, id, false)
}

func (r *authorRepository) FindDeleted(ctx context.Context, id int64) (*models.Author, error) {
	return findIn[models.Author](ctx, r.db, ViewDeleted, id, false)
}

func (r *authorRepository) LockLive(ctx context.Context, id int64) (*models.Author, error) {
	return findIn[models.Author](ctx, r.db, ViewLive, id, true)
}

func (r *authorRepository) ListLive(ctx context.Context) ([]models.Author, error) {
	return listIn[models.Author](ctx, r.db, ViewLive, "")
}

func (r *authorRepository) ListDeleted(ctx context.Context) ([]models.Author, error) {
	return listIn[models.Author](ctx, r.db, ViewDeleted, "")
}

func (r *authorRepository) MarkDeleted(ctx context.Context, ids ...int64) (int64, error) {
	n, err := markDeleted[models.Author](ctx, r.db, "id", ids)
	if err != nil {
		return 0, fmt.Errorf("mark authors deleted: %w", err)
	}
	return n, nil
}
