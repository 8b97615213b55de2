package service

import (
	"libhub/internal/microservices/http-api/dto"
	"libhub/internal/microservices/http-api/models"
	"libhub/internal/shared"
)

// newAuthor binds a new author to the acting user. Authors have no parent.
func newAuthor(actor shared.Identity, in dto.AuthorInput) *models.Author {
	return &models.Author{
		UserID: actor.UserID(),
		Name:   in.Name,
	}
}

// newSeries binds a new series to the author resolved from the path, never to a
// parent id taken from client input.
func newSeries(actor shared.Identity, parent *models.Author, in dto.WorkInput) *models.Series {
	authorID := parent.ID
	return &models.Series{
		UserID:      actor.UserID(),
		AuthorID:    &authorID,
		Name:        in.Name,
		Rating:      in.Rating,
		IsCompleted: in.IsCompleted,
		Description: in.Description,
	}
}

func newBook(actor shared.Identity, parent *models.Series, in dto.WorkInput) *models.Book {
	seriesID := parent.ID
	return &models.Book{
		UserID:      actor.UserID(),
		SeriesID:    &seriesID,
		Name:        in.Name,
		Rating:      in.Rating,
		IsCompleted: in.IsCompleted,
		Description: in.Description,
	}
}
