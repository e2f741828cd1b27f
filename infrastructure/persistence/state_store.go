package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Saved state keys.
const (
	FiltersKey     = "filters_saved_state_key"
	SearchQueryKey = "search_query_saved_state_key"
)

// StateStore keeps one plant list's saved state under a namespace.
// Filters are stored as a JSON array of type names.
type StateStore struct {
	db        database.Database
	namespace string
}

// NewStateStore creates a StateStore for namespace.
func NewStateStore(db database.Database, namespace string) StateStore {
	return StateStore{db: db, namespace: namespace}
}

// LoadFilters returns the saved filters, or the empty set when none were saved.
// Unknown type names are dropped.
func (s StateStore) LoadFilters(ctx context.Context) (plant.Filters, error) {
	raw, ok, err := s.load(ctx, FiltersKey)
	if err != nil || !ok {
		return plant.Filters{}, err
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return plant.Filters{}, fmt.Errorf("decode saved filters: %w", err)
	}
	types := make([]plant.Type, 0, len(names))
	for _, name := range names {
		if t, err := plant.ParseType(name); err == nil {
			types = append(types, t)
		}
	}
	return plant.NewFilters(types...), nil
}

// SaveFilters stores f.
func (s StateStore) SaveFilters(ctx context.Context, f plant.Filters) error {
	names := make([]string, 0, f.Len())
	for _, t := range f.Types() {
		names = append(names, string(t))
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}
	return s.save(ctx, FiltersKey, string(raw))
}

// LoadSearchText returns the saved search text, or "" when none was saved.
func (s StateStore) LoadSearchText(ctx context.Context) (string, error) {
	text, _, err := s.load(ctx, SearchQueryKey)
	return text, err
}

// SaveSearchText stores text.
func (s StateStore) SaveSearchText(ctx context.Context, text string) error {
	return s.save(ctx, SearchQueryKey, text)
}

func (s StateStore) load(ctx context.Context, key string) (string, bool, error) {
	var model SavedStateModel
	err := s.db.Session(ctx).
		Where("namespace = ? AND state_key = ?", s.namespace, key).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load saved state %s: %w", key, err)
	}
	return model.Value, true, nil
}

func (s StateStore) save(ctx context.Context, key, value string) error {
	model := SavedStateModel{Namespace: s.namespace, Key: key, Value: value}
	err := s.db.Session(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("save state %s: %w", key, err)
	}
	return nil
}
