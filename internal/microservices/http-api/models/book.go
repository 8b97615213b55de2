package models

import (
	"time"

	"libhub/internal/shared"
)

type Book struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      *string   `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	SeriesID    *int64    `json:"series_id" gorm:"index"`
	Rating      int       `json:"rating" gorm:"not null;default:0"`
	IsCompleted bool      `json:"is_completed" gorm:"not null;default:false"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	IsDeleted   bool      `json:"-" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;"`
	Series *Series `json:"-" gorm:"foreignKey:SeriesID;constraint:OnDelete:CASCADE;"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) Validate() error {
	v := shared.NewValidationError()
	validateName(v, b.Name, TitleMaxLen)
	validateRating(v, b.Rating)
	return v.OrNil()
}

// BelongsTo reports whether the book's stored parent is seriesID.
func (b *Book) BelongsTo(seriesID int64) bool {
	return b.SeriesID != nil && *b.SeriesID == seriesID
}
