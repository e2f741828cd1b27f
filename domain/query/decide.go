package query

import (
	"unicode/utf8"

	"github.com/helixml/greenhouse/domain/plant"
)

// MinTextLength is the number of runes a search text needs before it narrows by name.
const MinTextLength = 2

// Criteria is one combined observation of the search text and the filter set.
type Criteria struct {
	Text    string
	Filters plant.Filters
}

// Equal reports whether both criteria hold the same text and filters.
func (c Criteria) Equal(other Criteria) bool {
	return c.Text == other.Text && c.Filters.Equal(other.Filters)
}

// Decide maps criteria to a Spec. Text shorter than MinTextLength runes is
// ignored; qualifying text is used as given.
func Decide(c Criteria) Spec {
	short := utf8.RuneCountInString(c.Text) < MinTextLength
	switch {
	case short && c.Filters.IsEmpty():
		return All()
	case short:
		return ByFilters(c.Filters)
	case c.Filters.IsEmpty():
		return ByName(c.Text)
	default:
		return ByNameAndFilters(c.Text, c.Filters)
	}
}
