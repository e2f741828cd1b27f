package v1

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/helixml/greenhouse/infrastructure/api/jsonapi"
	"github.com/helixml/greenhouse/infrastructure/api/middleware"
)

// Page window limits for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps the row offset far from integer overflow.
	MaxPage = 10_000
)

// Window is one page of a list response. Page counts from 1.
type Window struct {
	Page int
	Size int
}

// ParseWindow reads page and page_size from the query string. Missing values
// take the defaults and page_size is capped at MaxPageSize. Anything that is
// not a positive integer, or a page past MaxPage, is a 400.
func ParseWindow(r *http.Request) (Window, error) {
	w := Window{Page: 1, Size: DefaultPageSize}
	values := r.URL.Query()

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPage {
			return Window{}, middleware.NewAPIError(http.StatusBadRequest,
				"page must be an integer between 1 and "+strconv.Itoa(MaxPage), err)
		}
		w.Page = n
	}

	if raw := values.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Window{}, middleware.NewAPIError(http.StatusBadRequest, "page_size must be a positive integer", err)
		}
		w.Size = min(n, MaxPageSize)
	}

	return w, nil
}

// Offset is the number of rows before the window.
func (w Window) Offset() int { return (w.Page - 1) * w.Size }

// Pages is the number of windows needed for total rows.
func (w Window) Pages(total int64) int {
	if w.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(w.Size) - 1) / int64(w.Size))
}

// Meta describes the window and the totals it was cut from.
func (w Window) Meta(total int64) jsonapi.Meta {
	return jsonapi.Meta{
		"page":        w.Page,
		"page_size":   w.Size,
		"total_count": total,
		"total_pages": w.Pages(total),
	}
}

// Links points at the neighbouring windows of u. A page past the end links
// back to the last one.
func (w Window) Links(u *url.URL, total int64) *jsonapi.Links {
	pages := w.Pages(total)
	at := func(page int) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(w.Size))
		return u.Path + "?" + q.Encode()
	}

	links := &jsonapi.Links{Self: at(w.Page), First: at(1)}
	if pages > 0 {
		links.Last = at(pages)
	}
	if w.Page > 1 {
		links.Prev = at(min(w.Page-1, max(pages, 1)))
	}
	if w.Page < pages {
		links.Next = at(w.Page + 1)
	}
	return links
}
