package query

import (
	"testing"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/domain/repository"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	fruit := plant.NewFilters(plant.TypeFruit)
	two := plant.NewFilters(plant.TypeFruit, plant.TypeFlower)

	tests := []struct {
		name     string
		criteria Criteria
		want     Spec
	}{
		{"empty text no filters", Criteria{}, All()},
		{"one rune no filters", Criteria{Text: "d"}, All()},
		{"one rune two filters", Criteria{Text: "d", Filters: two}, ByFilters(two)},
		{"empty text with filters", Criteria{Filters: fruit}, ByFilters(fruit)},
		{"two runes no filters", Criteria{Text: "da"}, ByName("da")},
		{"two runes with filters", Criteria{Text: "da", Filters: fruit}, ByNameAndFilters("da", fruit)},
		{"text passed through unmodified", Criteria{Text: " Da "}, ByName(" Da ")},
		{"multibyte single rune", Criteria{Text: "é"}, All()},
		{"multibyte two runes", Criteria{Text: "éé"}, ByName("éé")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.criteria)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestCriteria_Equal(t *testing.T) {
	a := Criteria{Text: "da", Filters: plant.NewFilters(plant.TypeFruit)}
	b := Criteria{Text: "da", Filters: plant.Filters{}.Toggle(plant.TypeFruit)}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(Criteria{Text: "da"}))
	assert.False(t, a.Equal(Criteria{Text: "db", Filters: a.Filters}))
}

func TestSpec_String(t *testing.T) {
	assert.Equal(t, "all", All().String())
	assert.Equal(t, `by_name("da")`, ByName("da").String())
	assert.Equal(t, `by_name_and_filters("da", {fruit})`,
		ByNameAndFilters("da", plant.NewFilters(plant.TypeFruit)).String())
}

func TestSpec_Options(t *testing.T) {
	q := repository.Build(ByNameAndFilters("da", plant.NewFilters(plant.TypeFruit)).Options()...)

	conds := q.Conditions()
	if assert.Len(t, conds, 2) {
		assert.Equal(t, "name", conds[0].Field())
		assert.Equal(t, repository.MatchContains, conds[0].Match())
		assert.Equal(t, "plant_type", conds[1].Field())
	}
	assert.Len(t, q.Orders(), 1)

	assert.Empty(t, repository.Build(All().Options()...).Conditions())
}
