package persistence_test

import (
	"context"
	"testing"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/domain/query"
	"github.com/helixml/greenhouse/infrastructure/persistence"
	"github.com/helixml/greenhouse/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store persistence.PlantStore) {
	t.Helper()
	require.NoError(t, store.SaveAll(context.Background(), []plant.Plant{
		plant.New("malus-pumila", "Apple", plant.TypeFruit, plant.WithGrowZone(3)),
		plant.New("beta-vulgaris", "Beet", plant.TypeVegetable),
		plant.New("tulipa", "Tulip", plant.TypeFlower),
		plant.New("persea-americana", "Avocado", plant.TypeFruit),
		plant.New("daucus-carota", "Carrot", plant.TypeVegetable),
	}))
}

func TestPlantStore_FindBySpec(t *testing.T) {
	store := persistence.NewPlantStore(testdb.New(t))
	seed(t, store)

	fruitAndFlower := plant.NewFilters(plant.TypeFruit, plant.TypeFlower)
	tests := []struct {
		spec query.Spec
		want []string
	}{
		{query.All(), []string{"Apple", "Avocado", "Beet", "Carrot", "Tulip"}},
		{query.ByFilters(fruitAndFlower), []string{"Apple", "Avocado", "Tulip"}},
		{query.ByName("ca"), []string{"Avocado", "Carrot"}},
		{query.ByNameAndFilters("ca", plant.NewFilters(plant.TypeFruit)), []string{"Avocado"}},
		{query.ByName("zz"), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.spec.String(), func(t *testing.T) {
			plants, err := store.Find(context.Background(), tt.spec.Options()...)
			require.NoError(t, err)
			names := make([]string, 0, len(plants))
			for _, p := range plants {
				names = append(names, p.Name())
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestPlantStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewPlantStore(testdb.New(t))

	require.NoError(t, store.Save(ctx, plant.New("tulipa", "Tulip", plant.TypeFlower)))
	require.NoError(t, store.Save(ctx, plant.New("tulipa", "Tulip", plant.TypeFlower,
		plant.WithWateringInterval(4), plant.WithDescription("Spring bulb"))))

	plants, err := store.Find(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, 4, plants[0].WateringInterval())
	assert.Equal(t, "Spring bulb", plants[0].Description())

	n, err := store.Count(ctx, plant.WithTypeIn(plant.NewFilters(plant.TypeFlower)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStateStore_RoundTripPerNamespace(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	first := persistence.NewStateStore(db, "first")
	second := persistence.NewStateStore(db, "second")

	filters, err := first.LoadFilters(ctx)
	require.NoError(t, err)
	assert.True(t, filters.IsEmpty())
	text, err := first.LoadSearchText(ctx)
	require.NoError(t, err)
	assert.Empty(t, text)

	require.NoError(t, first.SaveFilters(ctx, plant.NewFilters(plant.TypeFruit)))
	require.NoError(t, first.SaveFilters(ctx, plant.NewFilters(plant.TypeFruit, plant.TypeVegetable)))
	require.NoError(t, first.SaveSearchText(ctx, "to"))

	filters, err = first.LoadFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []plant.Type{plant.TypeFruit, plant.TypeVegetable}, filters.Types())
	text, err = first.LoadSearchText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "to", text)

	other, err := second.LoadFilters(ctx)
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestStateStore_DropsUnknownTypes(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	require.NoError(t, db.Session(ctx).Create(&persistence.SavedStateModel{
		Namespace: "legacy",
		Key:       persistence.FiltersKey,
		Value:     `["fruit","tree"]`,
	}).Error)

	filters, err := persistence.NewStateStore(db, "legacy").LoadFilters(ctx)

	require.NoError(t, err)
	assert.Equal(t, []plant.Type{plant.TypeFruit}, filters.Types())
}
