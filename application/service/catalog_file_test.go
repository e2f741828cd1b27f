package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogFile_JSON(t *testing.T) {
	plants, err := LoadCatalogFile(filepath.Join("testdata", "plants.json"))
	require.NoError(t, err)
	require.Len(t, plants, 2)

	apple := plants[0]
	assert.Equal(t, "malus-pumila", apple.ID())
	assert.Equal(t, plant.TypeFruit, apple.Type())
	assert.Equal(t, 3, apple.GrowZone())
	assert.Equal(t, 30, apple.WateringInterval())
	assert.Contains(t, apple.ImageURL(), "Apple_orchard")
}

func TestLoadCatalogFile_YAML(t *testing.T) {
	plants, err := LoadCatalogFile(filepath.Join("testdata", "flowers.yaml"))
	require.NoError(t, err)
	require.Len(t, plants, 2)

	assert.Equal(t, plant.TypeFlower, plants[0].Type())
	assert.Equal(t, plant.DefaultWateringInterval, plants[0].WateringInterval())
	assert.Equal(t, 3, plants[1].WateringInterval())
}

func TestLoadCatalogFile_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"unknown type", write("bad.yaml", "- id: oak\n  name: Oak\n  type: tree\n"), plant.ErrUnknownType},
		{"missing id", write("noid.json", `[{"name":"Oak","type":"flower"}]`), nil},
		{"unsupported extension", write("plants.csv", "id,name"), nil},
		{"missing file", filepath.Join(dir, "absent.json"), os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalogFile(tt.path)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestLoadCatalogFiles_KeepsPathOrder(t *testing.T) {
	plants, err := LoadCatalogFiles(context.Background(),
		filepath.Join("testdata", "flowers.yaml"),
		filepath.Join("testdata", "plants.json"),
	)
	require.NoError(t, err)

	names := make([]string, len(plants))
	for i, p := range plants {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"Tulip", "Sunflower", "Apple", "Beet"}, names)
}

func TestLoadCatalogFiles_FirstErrorWins(t *testing.T) {
	_, err := LoadCatalogFiles(context.Background(),
		filepath.Join("testdata", "plants.json"),
		filepath.Join("testdata", "missing.yaml"),
	)

	assert.ErrorIs(t, err, os.ErrNotExist)
}
