// Package persistence stores the plant catalog and saved list state with GORM.
package persistence

import (
	"context"
	"time"

	"github.com/helixml/greenhouse/internal/database"
)

// PlantModel is a catalog row.
type PlantModel struct {
	ID               string    `gorm:"primaryKey;size:128"`
	Name             string    `gorm:"size:255;not null;index"`
	Description      string    `gorm:"type:text"`
	PlantType        string    `gorm:"column:plant_type;size:32;not null;index"`
	GrowZone         int       `gorm:"not null;default:0"`
	WateringInterval int       `gorm:"not null;default:7"`
	ImageURL         string    `gorm:"size:1024"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name.
func (PlantModel) TableName() string { return "plants" }

// SavedStateModel holds one saved value of a plant list.
type SavedStateModel struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"column:state_key;primaryKey;size:64"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name.
func (SavedStateModel) TableName() string { return "saved_state" }

// AutoMigrate creates or updates every table.
func AutoMigrate(db database.Database) error {
	return db.Session(context.Background()).AutoMigrate(
		&PlantModel{},
		&SavedStateModel{},
	)
}
