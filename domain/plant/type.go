// Package plant provides the catalog domain: plants, their types and filter sets.
package plant

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType indicates a plant type name outside the known set.
var ErrUnknownType = errors.New("unknown plant type")

// Type is the category a plant belongs to.
type Type string

// Plant type constants.
const (
	TypeFlower    Type = "flower"
	TypeVegetable Type = "vegetable"
	TypeFruit     Type = "fruit"
)

// AllTypes returns every known type in display order.
func AllTypes() []Type {
	return []Type{TypeFlower, TypeVegetable, TypeFruit}
}

// ParseType converts a name such as "Fruit" or " vegetable " into a Type.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	switch t {
	case TypeFlower, TypeVegetable, TypeFruit:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }
