package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page    int
	PerPage int
}

// FromContext extracts page/per_page from the echo context, clamping to sane
// bounds.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Params{Page: page, PerPage: perPage}
}

// Limit returns the SQL LIMIT for the page.
func (p Params) Limit() int { return p.PerPage }

// Offset returns the SQL OFFSET for the page.
func (p Params) Offset() int { return (p.Page - 1) * p.PerPage }

// Meta describes the position of a page within the full result set.
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Response is the paginated list envelope.
type Response struct {
	Data interface{} `json:"data"`
	Meta Meta        `json:"meta"`
}

// NewResponse wraps data in the list envelope. LastPage is always at least 1
// so "page 1 of 1" renders for empty sets.
func NewResponse(data interface{}, total int, p Params) *Response {
	last := (total + p.PerPage - 1) / p.PerPage
	if last < 1 {
		last = 1
	}
	return &Response{
		Data: data,
		Meta: Meta{
			CurrentPage: p.Page,
			LastPage:    last,
			PerPage:     p.PerPage,
			Total:       total,
		},
	}
}

// HasNext reports whether a page follows the current one.
func (m Meta) HasNext() bool { return m.CurrentPage < m.LastPage }

// HasPrevious reports whether a page precedes the current one.
func (m Meta) HasPrevious() bool { return m.CurrentPage > 1 }
