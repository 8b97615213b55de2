package dto

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"libhub/internal/microservices/http-api/models"
	"libhub/internal/shared"

	"github.com/go-playground/validator/v10"
)

// FormPayload is a submitted form: field name -> raw string value.
type FormPayload map[string]string

// Get returns the trimmed value of a field.
func (p FormPayload) Get(field string) string {
	return strings.TrimSpace(p[field])
}

// Confirmed reports whether a delete submission carries the explicit confirmation.
func (p FormPayload) Confirmed() bool {
	return p.Get("delete_button") == "delete"
}

// AuthorInput is the validated content of an author form.
type AuthorInput struct {
	Name string `form:"name" validate:"required,max=100"`
}

// WorkInput is the validated content of a series or book form.
type WorkInput struct {
	Name        string  `form:"name" validate:"required,max=255"`
	Description *string `form:"description"`
	Rating      int     `form:"rating" validate:"min=0,max=10"`
	IsCompleted bool    `form:"is_completed"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeAuthorInput validates an author form. Failures are *shared.ValidationError.
func DecodeAuthorInput(p FormPayload) (AuthorInput, error) {
	in := AuthorInput{Name: p.Get("name")}
	ve := shared.NewValidationError()
	collect(ve, validate.Struct(in))
	return in, ve.OrNil()
}

// DecodeWorkInput validates a series/book form. Rating defaults to 0 and the
// completion status to incomplete when the fields are absent.
func DecodeWorkInput(p FormPayload) (WorkInput, error) {
	ve := shared.NewValidationError()
	in := WorkInput{Name: p.Get("name")}

	if d := p.Get("description"); d != "" {
		in.Description = &d
	}

	if raw := p.Get("rating"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ve.Add("rating", "rating must be a whole number")
		} else {
			in.Rating = n
		}
	}

	done, ok := parseCompletion(p.Get("is_completed"))
	if !ok {
		ve.Add("is_completed", "is_completed must be complete or incomplete")
	}
	in.IsCompleted = done

	collect(ve, validate.Struct(in))
	return in, ve.OrNil()
}

func parseCompletion(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "", "0", "false", "incomplete":
		return false, true
	case "1", "true", "complete":
		return true, true
	}
	return false, false
}

func collect(ve *shared.ValidationError, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ve.Add("form", err.Error())
		return
	}
	for _, fe := range verrs {
		ve.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch {
	case fe.Tag() == "required":
		return field + " must not be empty"
	case field == "rating":
		return "rating must be between 0 and 10"
	case fe.Tag() == "max":
		return field + " is too long"
	}
	return field + " is invalid"
}

// FormFromAuthor prefills an edit form with the stored values.
func FormFromAuthor(a *models.Author) FormPayload {
	return FormPayload{"name": a.Name}
}

func FormFromSeries(s *models.Series) FormPayload {
	return workForm(s.Name, s.Description, s.Rating, s.IsCompleted)
}

func FormFromBook(b *models.Book) FormPayload {
	return workForm(b.Name, b.Description, b.Rating, b.IsCompleted)
}

func workForm(name string, description *string, rating int, done bool) FormPayload {
	form := FormPayload{
		"name":         name,
		"rating":       strconv.Itoa(rating),
		"is_completed": CompletionLabel(done),
	}
	if description != nil {
		form["description"] = *description
	}
	return form
}

// CompletionLabel renders the completion status.
func CompletionLabel(done bool) string {
	if done {
		return "complete"
	}
	return "incomplete"
}
