package persistence

import (
	"context"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/internal/database"
)

// PlantStore implements plant.Store using GORM.
type PlantStore struct {
	database.Repository[plant.Plant, PlantModel]
}

// NewPlantStore creates a new PlantStore.
func NewPlantStore(db database.Database) PlantStore {
	return PlantStore{
		Repository: database.NewRepository[plant.Plant, PlantModel](db, PlantMapper{}, "plant"),
	}
}

// Save creates or replaces a plant.
func (s PlantStore) Save(ctx context.Context, p plant.Plant) error {
	return s.Upsert(ctx, p)
}

// SaveAll creates or replaces plants in one transaction.
func (s PlantStore) SaveAll(ctx context.Context, plants []plant.Plant) error {
	return s.Upsert(ctx, plants...)
}
