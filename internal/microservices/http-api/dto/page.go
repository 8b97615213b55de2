package dto

import "libhub/internal/microservices/http-api/models"

// BackNav tells the presentation layer which level the back link points to.
type BackNav struct {
	Authors bool `json:"authors"`
	Author  bool `json:"author"`
	Series  bool `json:"series"`
	Book    bool `json:"book"`
}

// PageContext is everything a view needs to render one page of the library.
type PageContext struct {
	Title string   `json:"title"`
	Back  *BackNav `json:"back_url,omitempty"`

	Author *models.Author `json:"author,omitempty"`
	Series *models.Series `json:"series,omitempty"`
	Book   *models.Book   `json:"book,omitempty"`

	Authors    []models.Author `json:"authors,omitempty"`
	SeriesList []models.Series `json:"series_list,omitempty"`
	Books      []models.Book   `json:"books,omitempty"`

	// DeleteLevel / EditLevel name the target level of a confirmation or edit page.
	DeleteLevel string `json:"delete,omitempty"`
	EditLevel   string `json:"edit,omitempty"`

	Form   FormPayload       `json:"form,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// MutationResult is returned by state-changing operations: where to go next and
// the entity that was written, when there is one.
type MutationResult struct {
	Location string         `json:"location"`
	Author   *models.Author `json:"author,omitempty"`
	Series   *models.Series `json:"series,omitempty"`
	Book     *models.Book   `json:"book,omitempty"`
}
