package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/helixml/greenhouse/domain/plant"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// catalogEntry is one plant in a seed file. Both the snake_case keys and the
// camelCase keys of the classic plants.json layout are accepted.
type catalogEntry struct {
	ID               string `json:"id" yaml:"id"`
	PlantID          string `json:"plantId" yaml:"plantId"`
	Name             string `json:"name" yaml:"name"`
	Description      string `json:"description" yaml:"description"`
	Type             string `json:"type" yaml:"type"`
	PlantType        string `json:"plantType" yaml:"plantType"`
	GrowZone         int    `json:"grow_zone" yaml:"grow_zone"`
	GrowZoneNumber   int    `json:"growZoneNumber" yaml:"growZoneNumber"`
	WateringInterval int    `json:"watering_interval" yaml:"watering_interval"`
	WateringCamel    int    `json:"wateringInterval" yaml:"wateringInterval"`
	ImageURL         string `json:"image_url" yaml:"image_url"`
	ImageURLCamel    string `json:"imageUrl" yaml:"imageUrl"`
}

func (e catalogEntry) toPlant() (plant.Plant, error) {
	id := firstNonEmpty(e.ID, e.PlantID)
	if id == "" {
		return plant.Plant{}, fmt.Errorf("plant %q: missing id", e.Name)
	}
	typ, err := plant.ParseType(firstNonEmpty(e.Type, e.PlantType))
	if err != nil {
		return plant.Plant{}, fmt.Errorf("plant %q: %w", id, err)
	}
	return plant.New(id, e.Name, typ,
		plant.WithDescription(e.Description),
		plant.WithGrowZone(max(e.GrowZone, e.GrowZoneNumber)),
		plant.WithWateringInterval(max(e.WateringInterval, e.WateringCamel)),
		plant.WithImageURL(firstNonEmpty(e.ImageURL, e.ImageURLCamel)),
	), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoadCatalogFile decodes a .json, .yaml or .yml seed file.
func LoadCatalogFile(path string) ([]plant.Plant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var entries []catalogEntry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &entries)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		return nil, fmt.Errorf("catalog file %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog file %s: %w", path, err)
	}

	plants := make([]plant.Plant, 0, len(entries))
	for _, e := range entries {
		p, err := e.toPlant()
		if err != nil {
			return nil, fmt.Errorf("catalog file %s: %w", path, err)
		}
		plants = append(plants, p)
	}
	return plants, nil
}

// LoadCatalogFiles decodes several seed files concurrently. Plants keep the
// order of paths; the first failure cancels the rest.
func LoadCatalogFiles(ctx context.Context, paths ...string) ([]plant.Plant, error) {
	results := make([][]plant.Plant, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			plants, err := LoadCatalogFile(path)
			if err != nil {
				return err
			}
			results[i] = plants
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []plant.Plant
	for _, plants := range results {
		all = append(all, plants...)
	}
	return all, nil
}
