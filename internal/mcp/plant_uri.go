package mcp

import (
	"errors"
	"fmt"
	"strings"
)

// PlantURIScheme prefixes every plant resource URI.
const PlantURIScheme = "greenhouse://plants/"

// ErrInvalidPlantURI indicates a resource URI that does not name a plant.
var ErrInvalidPlantURI = errors.New("invalid plant uri")

// PlantURI addresses a single catalog entry as an MCP resource.
type PlantURI struct {
	id string
}

// NewPlantURI creates a PlantURI for the plant ID.
func NewPlantURI(id string) PlantURI {
	return PlantURI{id: id}
}

// ParsePlantURI extracts the plant ID from a greenhouse://plants/{id} URI.
func ParsePlantURI(s string) (PlantURI, error) {
	id, ok := strings.CutPrefix(s, PlantURIScheme)
	if !ok || id == "" || strings.Contains(id, "/") {
		return PlantURI{}, fmt.Errorf("%w: %q", ErrInvalidPlantURI, s)
	}
	return PlantURI{id: id}, nil
}

// ID returns the plant identifier.
func (u PlantURI) ID() string { return u.id }

// String builds the resource URI.
func (u PlantURI) String() string {
	return PlantURIScheme + u.id
}
