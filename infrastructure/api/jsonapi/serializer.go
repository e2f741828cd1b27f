package jsonapi

import (
	"time"

	"github.com/helixml/greenhouse/domain/gallery"
	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/domain/query"
)

// Resource types.
const (
	TypePlant     = "plant"
	TypePlantType = "plant_type"
	TypeSession   = "session"
	TypePhoto     = "photo"
)

// PlantAttributes represents plant attributes.
type PlantAttributes struct {
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Type             string `json:"type"`
	GrowZone         int    `json:"grow_zone"`
	WateringInterval int    `json:"watering_interval"`
	ImageURL         string `json:"image_url,omitempty"`
}

// PlantTypeAttributes represents one plant type with its catalog count.
type PlantTypeAttributes struct {
	Count int64 `json:"count"`
}

// SessionAttributes represents a plant list session's current inputs.
type SessionAttributes struct {
	SearchText        string   `json:"search_text"`
	Filters           []string `json:"filters"`
	ActiveFilterCount int      `json:"active_filter_count"`
	Query             string   `json:"query"`
	CreatedAt         DateTime `json:"created_at"`
}

// PhotoAttributes represents one gallery photo.
type PhotoAttributes struct {
	Description  string `json:"description,omitempty"`
	RegularURL   string `json:"regular_url"`
	SmallURL     string `json:"small_url"`
	Photographer string `json:"photographer"`
	ProfileURL   string `json:"profile_url,omitempty"`
}

// PlantResource serializes a plant.
func PlantResource(p plant.Plant, base string) *Resource {
	return NewResource(TypePlant, p.ID(), PlantAttributes{
		Name:             p.Name(),
		Description:      p.Description(),
		Type:             p.Type().String(),
		GrowZone:         p.GrowZone(),
		WateringInterval: p.WateringInterval(),
		ImageURL:         p.ImageURL(),
	}, link(base, p.ID()))
}

// PlantResources serializes a plant list.
func PlantResources(plants []plant.Plant, base string) []*Resource {
	out := make([]*Resource, len(plants))
	for i, p := range plants {
		out[i] = PlantResource(p, base)
	}
	return out
}

// PlantTypeResource serializes a plant type and its count.
func PlantTypeResource(t plant.Type, count int64) *Resource {
	return NewResource(TypePlantType, t.String(), PlantTypeAttributes{Count: count}, "")
}

// SessionResource serializes a session's inputs.
func SessionResource(id, text string, filters plant.Filters, createdAt time.Time, base string) *Resource {
	types := filters.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	spec := query.Decide(query.Criteria{Text: text, Filters: filters})
	return NewResource(TypeSession, id, SessionAttributes{
		SearchText:        text,
		Filters:           names,
		ActiveFilterCount: filters.Len(),
		Query:             spec.String(),
		CreatedAt:         DateTime(createdAt),
	}, link(base, id))
}

// PhotoResources serializes one gallery page.
func PhotoResources(page gallery.Page) []*Resource {
	out := make([]*Resource, len(page.Photos))
	for i, p := range page.Photos {
		out[i] = NewResource(TypePhoto, p.ID, PhotoAttributes{
			Description:  p.Description,
			RegularURL:   p.RegularURL,
			SmallURL:     p.SmallURL,
			Photographer: p.Photographer,
			ProfileURL:   p.ProfileURL,
		}, "")
	}
	return out
}

// PageMeta describes a gallery page.
func PageMeta(page gallery.Page) Meta {
	return Meta{
		"page":        page.Number,
		"total_pages": page.TotalPages,
		"total":       page.Total,
		"last":        page.Last(),
	}
}

func link(base, id string) string {
	if base == "" {
		return ""
	}
	return base + "/" + id
}
