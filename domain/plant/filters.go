package plant

import (
	"slices"
	"strings"
)

// Filters is an immutable set of plant types. The zero value is the empty set.
//
// Every operation returns a new value, so a Filters can be shared between
// goroutines without copying.
type Filters struct {
	types []Type
}

// NewFilters creates a set from the given types, dropping duplicates.
func NewFilters(types ...Type) Filters {
	if len(types) == 0 {
		return Filters{}
	}
	sorted := slices.Clone(types)
	slices.Sort(sorted)
	return Filters{types: slices.Compact(sorted)}
}

// ParseFilters builds a set from type names. Blank names are skipped; an
// unknown name fails with ErrUnknownType.
func ParseFilters(names ...string) (Filters, error) {
	types := make([]Type, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, err := ParseType(name)
		if err != nil {
			return Filters{}, err
		}
		types = append(types, t)
	}
	return NewFilters(types...), nil
}

// Toggle returns a set with t added when absent or removed when present.
func (f Filters) Toggle(t Type) Filters {
	i, found := slices.BinarySearch(f.types, t)
	if found {
		return Filters{types: slices.Delete(slices.Clone(f.types), i, i+1)}
	}
	return Filters{types: slices.Insert(slices.Clone(f.types), i, t)}
}

// Contains reports whether t is in the set.
func (f Filters) Contains(t Type) bool {
	_, found := slices.BinarySearch(f.types, t)
	return found
}

// Len returns the number of types in the set.
func (f Filters) Len() int { return len(f.types) }

// IsEmpty reports whether the set has no types.
func (f Filters) IsEmpty() bool { return len(f.types) == 0 }

// Types returns the set's members in sorted order.
func (f Filters) Types() []Type { return slices.Clone(f.types) }

// Equal reports whether both sets hold the same types.
func (f Filters) Equal(other Filters) bool { return slices.Equal(f.types, other.types) }

func (f Filters) String() string {
	names := make([]string, len(f.types))
	for i, t := range f.types {
		names[i] = string(t)
	}
	return "{" + strings.Join(names, ",") + "}"
}
