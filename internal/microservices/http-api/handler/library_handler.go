package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"libhub/internal/microservices/http-api/dto"
	"libhub/internal/microservices/http-api/middleware"
	"libhub/internal/microservices/http-api/service"
	"libhub/internal/shared"

	"github.com/gin-gonic/gin"
)

// LibraryHandler maps the library routes onto LibraryService, one route per case.
type LibraryHandler struct {
	svc    service.LibraryService
	logger *slog.Logger
}

func NewLibraryHandler(svc service.LibraryService, logger *slog.Logger) *LibraryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryHandler{svc: svc, logger: logger}
}

const (
	authorPath = "/authors/:author_id"
	seriesPath = authorPath + "/series/:series_id"
	bookPath   = seriesPath + "/books/:book_id"
)

func (h *LibraryHandler) RegisterRoutes(rg gin.IRouter) {
	rg.GET("/authors", h.ListAuthors)
	rg.GET("/authors/new", h.NewAuthorForm)
	rg.POST("/authors", h.CreateAuthor)

	rg.GET(authorPath, h.ShowAuthor)
	rg.GET(authorPath+"/series/new", h.NewSeriesForm)
	rg.POST(authorPath+"/series", h.CreateSeries)

	rg.GET(seriesPath, h.ShowSeries)
	rg.GET(seriesPath+"/books/new", h.NewBookForm)
	rg.POST(seriesPath+"/books", h.CreateBook)

	rg.GET(bookPath, h.ShowBook)

	for _, p := range []string{authorPath, seriesPath, bookPath} {
		rg.GET(p+"/edit/:level", h.EditForm)
		rg.POST(p+"/edit/:level", h.Edit)
		rg.GET(p+"/delete/:level", h.ConfirmDelete)
		rg.POST(p+"/delete/:level", h.ExecuteDelete)
	}
}

func (h *LibraryHandler) ListAuthors(c *gin.Context) {
	page, err := h.svc.ListAuthors(c.Request.Context(), middleware.IdentityFrom(c))
	h.renderPage(c, page, err)
}

func (h *LibraryHandler) ShowAuthor(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	page, err := h.svc.ShowAuthor(c.Request.Context(), middleware.IdentityFrom(c), ids)
	h.renderPage(c, page, err)
}

func (h *LibraryHandler) ShowSeries(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	page, err := h.svc.ShowSeries(c.Request.Context(), middleware.IdentityFrom(c), ids)
	h.renderPage(c, page, err)
}

func (h *LibraryHandler) ShowBook(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	page, err := h.svc.ShowBook(c.Request.Context(), middleware.IdentityFrom(c), ids)
	h.renderPage(c, page, err)
}

func (h *LibraryHandler) NewAuthorForm(c *gin.Context) {
	page, err := h.svc.NewAuthorForm(c.Request.Context(), middleware.IdentityFrom(c))
	h.renderPage(c, page, err)
}

func (h *LibraryHandler) NewSeriesForm(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	page, err := h.svc.NewSeriesForm(c.Request.Context(), middleware.IdentityFrom(c), ids)
	h.renderPage(c, page, err)
}

func (h *LibraryHandler) NewBookForm(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	page, err := h.svc.NewBookForm(c.Request.Context(), middleware.IdentityFrom(c), ids)
	h.renderPage(c, page, err)
}

func (h *LibraryHandler) CreateAuthor(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	ctx, actor := c.Request.Context(), middleware.IdentityFrom(c)

	res, err := h.svc.CreateAuthor(ctx, actor, form)
	h.renderMutation(c, res, err, form, func() (*dto.PageContext, error) {
		return h.svc.NewAuthorForm(ctx, actor)
	})
}

func (h *LibraryHandler) CreateSeries(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	form, ok := h.form(c)
	if !ok {
		return
	}
	ctx, actor := c.Request.Context(), middleware.IdentityFrom(c)

	res, err := h.svc.CreateSeries(ctx, actor, ids, form)
	h.renderMutation(c, res, err, form, func() (*dto.PageContext, error) {
		return h.svc.NewSeriesForm(ctx, actor, ids)
	})
}

func (h *LibraryHandler) CreateBook(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	form, ok := h.form(c)
	if !ok {
		return
	}
	ctx, actor := c.Request.Context(), middleware.IdentityFrom(c)

	res, err := h.svc.CreateBook(ctx, actor, ids, form)
	h.renderMutation(c, res, err, form, func() (*dto.PageContext, error) {
		return h.svc.NewBookForm(ctx, actor, ids)
	})
}

func (h *LibraryHandler) EditForm(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	page, err := h.svc.EditForm(c.Request.Context(), middleware.IdentityFrom(c), ids, c.Param("level"))
	h.renderPage(c, page, err)
}

func (h *LibraryHandler) Edit(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	form, ok := h.form(c)
	if !ok {
		return
	}
	ctx, actor, level := c.Request.Context(), middleware.IdentityFrom(c), c.Param("level")

	res, err := h.svc.Edit(ctx, actor, ids, level, form)
	h.renderMutation(c, res, err, form, func() (*dto.PageContext, error) {
		return h.svc.EditForm(ctx, actor, ids, level)
	})
}

func (h *LibraryHandler) ConfirmDelete(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	page, err := h.svc.ConfirmDelete(c.Request.Context(), middleware.IdentityFrom(c), ids, c.Param("level"))
	h.renderPage(c, page, err)
}

func (h *LibraryHandler) ExecuteDelete(c *gin.Context) {
	ids, ok := h.pathIDs(c)
	if !ok {
		return
	}
	form, ok := h.form(c)
	if !ok {
		return
	}
	ctx, actor, level := c.Request.Context(), middleware.IdentityFrom(c), c.Param("level")

	res, err := h.svc.ExecuteDelete(ctx, actor, ids, level, form)
	if errors.Is(err, service.ErrConfirmationRequired) {
		// no confirmation flag: show what would be removed instead
		page, err := h.svc.ConfirmDelete(ctx, actor, ids, level)
		h.renderPage(c, page, err)
		return
	}
	h.renderMutation(c, res, err, form, nil)
}

// pathIDs reads whichever of the three path ids the route carries. A non-numeric
// id cannot name any row, so it is answered as not found.
func (h *LibraryHandler) pathIDs(c *gin.Context) (service.PathIDs, bool) {
	ids, err := service.ParsePathIDs(c.Param("author_id"), c.Param("series_id"), c.Param("book_id"))
	if err != nil {
		h.renderError(c, err)
		return ids, false
	}
	return ids, true
}

// form flattens the submitted body into field -> string. Urlencoded, multipart
// and flat JSON objects are accepted; an empty body is an empty form.
func (h *LibraryHandler) form(c *gin.Context) (dto.FormPayload, bool) {
	form := dto.FormPayload{}
	contentType := c.ContentType()

	switch {
	case contentType == gin.MIMEJSON:
		var raw map[string]any
		if c.Request.ContentLength == 0 {
			return form, true
		}
		if err := c.ShouldBindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a flat JSON object"})
			return nil, false
		}
		for k, v := range raw {
			switch v := v.(type) {
			case nil:
			case string:
				form[k] = v
			case map[string]any, []any:
				c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a flat JSON object"})
				return nil, false
			default:
				form[k] = fmt.Sprint(v)
			}
		}
	case strings.HasPrefix(contentType, gin.MIMEMultipartPOSTForm):
		if _, err := c.MultipartForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed multipart form"})
			return nil, false
		}
		for k, vs := range c.Request.PostForm {
			if len(vs) > 0 {
				form[k] = vs[0]
			}
		}
	default:
		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed form"})
			return nil, false
		}
		for k, vs := range c.Request.PostForm {
			if len(vs) > 0 {
				form[k] = vs[0]
			}
		}
	}
	return form, true
}

func (h *LibraryHandler) renderPage(c *gin.Context, page *dto.PageContext, err error) {
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// renderMutation redirects on success. A rejected form is re-presented with the
// submitted values and field errors, using rebuild for the surrounding context.
func (h *LibraryHandler) renderMutation(
	c *gin.Context,
	res *dto.MutationResult,
	err error,
	form dto.FormPayload,
	rebuild func() (*dto.PageContext, error),
) {
	if err == nil {
		c.Redirect(http.StatusSeeOther, res.Location)
		return
	}

	ve, ok := shared.IsValidation(err)
	if !ok || rebuild == nil {
		h.renderError(c, err)
		return
	}

	page, perr := rebuild()
	if perr != nil {
		h.renderError(c, perr)
		return
	}
	page.Form = form
	page.Errors = ve.Fields
	c.JSON(http.StatusUnprocessableEntity, page)
}

func (h *LibraryHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, shared.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "login_url": dto.LoginPath})
	default:
		if ve, ok := shared.IsValidation(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": ve.Fields})
			return
		}
		h.logger.Error("library request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
