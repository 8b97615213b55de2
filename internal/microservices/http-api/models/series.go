package models

import (
	"time"

	"libhub/internal/shared"
)

type Series struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      *string   `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	AuthorID    *int64    `json:"author_id" gorm:"index"`
	Rating      int       `json:"rating" gorm:"not null;default:0"`
	IsCompleted bool      `json:"is_completed" gorm:"not null;default:false"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	IsDeleted   bool      `json:"-" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;"`
	Author *Author `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
}

func (Series) TableName() string {
	return "series"
}

func (s *Series) Validate() error {
	v := shared.NewValidationError()
	validateName(v, s.Name, TitleMaxLen)
	validateRating(v, s.Rating)
	return v.OrNil()
}

// BelongsTo reports whether the series' stored parent is authorID.
func (s *Series) BelongsTo(authorID int64) bool {
	return s.AuthorID != nil && *s.AuthorID == authorID
}
