package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"libhub/internal/shared"
)

const (
	AuthorNameMaxLen = 100
	TitleMaxLen      = 255
	RatingMin        = 0
	RatingMax        = 10
)

type Author struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    *string   `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	IsDeleted bool      `json:"-" gorm:"not null;default:false;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;"`
}

func (Author) TableName() string {
	return "authors"
}

// Validate checks the row-level constraints enforced before any write.
func (a *Author) Validate() error {
	v := shared.NewValidationError()
	validateName(v, a.Name, AuthorNameMaxLen)
	return v.OrNil()
}

func validateName(v *shared.ValidationError, name string, max int) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		v.Add("name", "name must not be empty")
	case utf8.RuneCountInString(name) > max:
		v.Add("name", "name is too long")
	}
}

func validateRating(v *shared.ValidationError, rating int) {
	if rating < RatingMin || rating > RatingMax {
		v.Add("rating", "rating must be between 0 and 10")
	}
}
