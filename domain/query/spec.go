// Package query decides which catalog query a search text and filter set map to.
package query

import (
	"fmt"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/domain/repository"
)

// Kind identifies the shape of a Spec.
type Kind int

// Spec kinds.
const (
	KindAll Kind = iota
	KindByFilters
	KindByName
	KindByNameAndFilters
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindByFilters:
		return "by_filters"
	case KindByName:
		return "by_name"
	case KindByNameAndFilters:
		return "by_name_and_filters"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Spec is a catalog query. Only the fields its Kind uses are set.
type Spec struct {
	kind    Kind
	text    string
	filters plant.Filters
}

// All matches every plant.
func All() Spec { return Spec{kind: KindAll} }

// ByFilters matches plants of any type in f.
func ByFilters(f plant.Filters) Spec { return Spec{kind: KindByFilters, filters: f} }

// ByName matches plants whose name contains text.
func ByName(text string) Spec { return Spec{kind: KindByName, text: text} }

// ByNameAndFilters matches plants whose name contains text and whose type is in f.
func ByNameAndFilters(text string, f plant.Filters) Spec {
	return Spec{kind: KindByNameAndFilters, text: text, filters: f}
}

// Kind returns the spec's shape.
func (s Spec) Kind() Kind { return s.kind }

// Text returns the name fragment, empty for All and ByFilters.
func (s Spec) Text() string { return s.text }

// Filters returns the type set, empty for All and ByName.
func (s Spec) Filters() plant.Filters { return s.filters }

// Equal reports whether both specs describe the same query.
func (s Spec) Equal(other Spec) bool {
	return s.kind == other.kind && s.text == other.text && s.filters.Equal(other.filters)
}

// Options translates the spec into store options, ordered by name.
func (s Spec) Options() []repository.Option {
	opts := make([]repository.Option, 0, 3)
	switch s.kind {
	case KindByFilters:
		opts = append(opts, plant.WithTypeIn(s.filters))
	case KindByName:
		opts = append(opts, plant.WithNameContaining(s.text))
	case KindByNameAndFilters:
		opts = append(opts, plant.WithNameContaining(s.text), plant.WithTypeIn(s.filters))
	}
	return append(opts, plant.WithOrderByName())
}

func (s Spec) String() string {
	switch s.kind {
	case KindByFilters:
		return fmt.Sprintf("%s(%s)", s.kind, s.filters)
	case KindByName:
		return fmt.Sprintf("%s(%q)", s.kind, s.text)
	case KindByNameAndFilters:
		return fmt.Sprintf("%s(%q, %s)", s.kind, s.text, s.filters)
	default:
		return s.kind.String()
	}
}

// Label names the spec's kind for metrics.
func (s Spec) Label() string { return s.kind.String() }
