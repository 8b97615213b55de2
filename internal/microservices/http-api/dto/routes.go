package dto

import "fmt"

const (
	APIPrefix = "/api"
	LoginPath = APIPrefix + "/auth/login"
)

func AuthorsURL() string {
	return APIPrefix + "/authors"
}

func AuthorURL(authorID int64) string {
	return fmt.Sprintf("%s/authors/%d", APIPrefix, authorID)
}

func SeriesURL(authorID, seriesID int64) string {
	return fmt.Sprintf("%s/series/%d", AuthorURL(authorID), seriesID)
}

func BookURL(authorID, seriesID, bookID int64) string {
	return fmt.Sprintf("%s/books/%d", SeriesURL(authorID, seriesID), bookID)
}
