// Package gallery provides the photo search domain.
package gallery

import "strings"

// Photo is one search hit.
type Photo struct {
	ID           string
	Description  string
	RegularURL   string
	SmallURL     string
	Photographer string
	ProfileURL   string
}

// Page is one page of search results. Number starts at 1.
type Page struct {
	Number     int
	TotalPages int
	Total      int
	Photos     []Photo
}

// Last reports whether no pages follow this one.
func (p Page) Last() bool {
	return p.Number >= p.TotalPages
}

// NormalizeQuery trims surrounding whitespace from a search text.
func NormalizeQuery(text string) string {
	return strings.TrimSpace(text)
}
