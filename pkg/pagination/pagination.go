// Package pagination parses page requests and builds list envelopes.
package pagination

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// MaxPage bounds the page number so that Offset cannot overflow for any
// page size an endpoint accepts. Larger requests are clamped to it and
// simply land past the last page.
const MaxPage = 1 << 24

// Params is a resolved page request.
type Params struct {
	Page    int
	PerPage int
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FixedSize reads the `page` query parameter and pairs it with a page size
// the client cannot change. A missing page means 1; anything that is not a
// positive integer is rejected. Pages beyond MaxPage are clamped.
func FixedSize(r *http.Request, perPage int) (Params, error) {
	p := Params{Page: 1, PerPage: perPage}
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return p, nil
	}
	page, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			p.Page = MaxPage
			return p, nil
		}
		return p, apperrors.InvalidInput("page must be a positive integer")
	}
	if page < 1 {
		return p, apperrors.InvalidInput("page must be a positive integer")
	}
	p.Page = int(min(page, MaxPage))
	return p, nil
}

// FromRequest reads `page` and `per_page`, clamping per_page to max and
// falling back to def for missing or invalid values.
func FromRequest(r *http.Request, def, max int) Params {
	p := Params{Page: 1, PerPage: def}
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = min(v, MaxPage)
	} else if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(q.Get("page"), "-") {
		p.Page = MaxPage
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, max)
	}
	return p
}

// Page is the list envelope returned by paginated endpoints.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalCount int  `json:"total_count"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewPage builds the envelope. total_pages is ceil(total/per_page) and
// has_more is true while the requested page is before the last one.
func NewPage[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if p.PerPage > 0 {
		totalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return Page[T]{
		Items:      items,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalCount: total,
		TotalPages: totalPages,
		HasMore:    p.Page < totalPages,
	}
}
