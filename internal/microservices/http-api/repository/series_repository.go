package repository

import (
	"context"
	"fmt"

	"libhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// SeriesRepository is the entity store for series.
type SeriesRepository interface {
	Create(ctx context.Context, series *models.Series) error
	Update(ctx context.Context, series *models.Series) error
	FindLive(ctx context.Context, id int64) (*models.Series, error)
	FindDeleted(ctx context.Context, id int64) (*models.Series, error)
	LockLive(ctx context.Context, id int64) (*models.Series, error)
	ListLiveByAuthor(ctx context.Context, authorID int64) ([]models.Series, error)
	// LockLiveByAuthor is ListLiveByAuthor with a row lock on each series.
	LockLiveByAuthor(ctx context.Context, authorID int64) ([]models.Series, error)
	ListDeleted(ctx context.Context) ([]models.Series, error)
	MarkDeleted(ctx context.Context, ids ...int64) (int64, error)
}

type seriesRepository struct {
	db *gorm.DB
}

func NewSeriesRepository(db *gorm.DB) SeriesRepository {
	return &seriesRepository{db: db}
}

func (r *seriesRepository) Create(ctx context.Context, series *models.Series) error {
	if err := series.Validate(); err != nil {
		return err
	}
	series.IsDeleted = false
	if err := r.db.WithContext(ctx).Omit("User", "Author").Create(series).Error; err != nil {
		return fmt.Errorf("create series: %w", err)
	}
	return nil
}

func (r *seriesRepository) Update(ctx context.Context, series *models.Series) error {
	if err := series.Validate(); err != nil {
		return err
	}
	return updateLive[models.Series](ctx, r.db, series.ID, map[string]any{
		"name":         series.Name,
		"rating":       series.Rating,
		"is_completed": series.IsCompleted,
		"description":  series.Description,
	})
}

func (r *seriesRepository) FindLive(ctx context.Context, id int64) (*models.Series, error) {
	return findIn[models.Series](ctx, r.db, ViewLive, id, false)
}

func (r *seriesRepository) FindDeleted(ctx context.Context, id int64) (*models.Series, error) {
	return findIn[models.Series](ctx, r.db, ViewDeleted, id, false)
}

func (r *seriesRepository) LockLive(ctx context.Context, id int64) (*models.Series, error) {
	return findIn[models.Series](ctx, r.db, ViewLive, id, true)
}

func (r *seriesRepository) ListLiveByAuthor(ctx context.Context, authorID int64) ([]models.Series, error) {
	return listIn[models.Series](ctx, r.db, ViewLive, "author_id = ?", authorID)
}

func (r *seriesRepository) LockLiveByAuthor(ctx context.Context, authorID int64) ([]models.Series, error) {
	return lockLiveIn[models.Series](ctx, r.db, "author_id = ?", authorID)
}

func (r *seriesRepository) ListDeleted(ctx context.Context) ([]models.Series, error) {
	return listIn[models.Series](ctx, r.db, ViewDeleted, "")
}

func (r *seriesRepository) MarkDeleted(ctx context.Context, ids ...int64) (int64, error) {
	n, err := markDeleted[models.Series](ctx, r.db, "id", ids)
	if err != nil {
		return 0, fmt.Errorf("mark series deleted: %w", err)
	}
	return n, nil
}
