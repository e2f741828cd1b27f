package persistence

import (
	"fmt"

	"github.com/helixml/greenhouse/domain/plant"
)

// PlantMapper converts between plant.Plant and PlantModel.
type PlantMapper struct{}

// ToDomain converts a row to a plant. Rows with an unknown type are rejected.
func (PlantMapper) ToDomain(m PlantModel) (plant.Plant, error) {
	typ, err := plant.ParseType(m.PlantType)
	if err != nil {
		return plant.Plant{}, fmt.Errorf("plant %s: %w", m.ID, err)
	}
	return plant.New(m.ID, m.Name, typ,
		plant.WithDescription(m.Description),
		plant.WithGrowZone(m.GrowZone),
		plant.WithWateringInterval(m.WateringInterval),
		plant.WithImageURL(m.ImageURL),
	), nil
}

// ToModel converts a plant to a row.
func (PlantMapper) ToModel(p plant.Plant) PlantModel {
	return PlantModel{
		ID:               p.ID(),
		Name:             p.Name(),
		Description:      p.Description(),
		PlantType:        string(p.Type()),
		GrowZone:         p.GrowZone(),
		WateringInterval: p.WateringInterval(),
		ImageURL:         p.ImageURL(),
	}
}
