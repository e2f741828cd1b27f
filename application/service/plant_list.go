package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/domain/query"
	"github.com/helixml/greenhouse/internal/cell"
	"github.com/helixml/greenhouse/internal/dispatch"
	"github.com/helixml/greenhouse/internal/scope"
	"github.com/helixml/greenhouse/internal/stream"
)

// DefaultSearchDebounce is the quiet period applied to search text.
const DefaultSearchDebounce = 300 * time.Millisecond

// PlantSource runs plant queries.
type PlantSource = dispatch.Source[query.Spec, []plant.Plant]

// PlantEvent is one observation of a plant list's current query.
type PlantEvent = dispatch.Event[[]plant.Plant]

type options struct {
	debounce        time.Duration
	debounceFilters bool
	logger          *slog.Logger
	observer        dispatch.Observer
}

// Option configures a PlantList or a Gallery. Debounce options only apply to PlantList.
type Option func(*options)

// WithDebounce sets the search text quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *options) { c.debounce = d }
}

// WithDebouncedFilters debounces the combined search text and filters, so a
// toggle made while text is settling joins that dispatch. By default filter
// toggles reach the query immediately, which on a settled list means a toggle
// right after a text edit dispatches once for the toggle and again once the
// text settles.
func WithDebouncedFilters(enabled bool) Option {
	return func(c *options) { c.debounceFilters = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *options) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver reports query lifecycle transitions to obs.
func WithObserver(obs dispatch.Observer) Option {
	return func(c *options) { c.observer = obs }
}

// PlantList combines a search text and a set of type filters into one live
// plant query. Text changes are debounced; only the result of the most recent
// combination is delivered.
//
// All of its goroutines run under the scope passed to NewPlantList and stop
// when that scope is torn down.
type PlantList struct {
	scope   *scope.Scope
	text    *cell.Cell[string]
	filters *cell.Cell[plant.Filters]
	events   <-chan PlantEvent
	state    StateStore
	logger   *slog.Logger
	debounce time.Duration
}

// NewPlantList restores the saved inputs from state and starts the query
// pipeline under sc. state may be nil.
func NewPlantList(sc *scope.Scope, source PlantSource, state StateStore, opts ...Option) (*PlantList, error) {
	cfg := options{
		debounce: DefaultSearchDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("create plant list: %w", err)
	}

	l := &PlantList{
		scope:    sc,
		state:    state,
		logger:   cfg.logger,
		debounce: cfg.debounce,
	}
	text, filters := l.restore(sc.Context())
	l.text = cell.New(text)
	l.filters = cell.New(filters)

	events, err := l.pipeline(cfg, source)
	if err != nil {
		return nil, fmt.Errorf("create plant list: %w", err)
	}
	l.events = events

	if state != nil {
		if err := l.persist(cfg.debounce, text, filters); err != nil {
			return nil, fmt.Errorf("create plant list: %w", err)
		}
	}
	return l, nil
}

func (l *PlantList) pipeline(cfg options, source PlantSource) (<-chan PlantEvent, error) {
	sc := l.scope

	textUpdates, err := l.text.Subscribe(sc)
	if err != nil {
		return nil, err
	}
	texts, err := stream.Map(sc, textUpdates, cell.Versioned[string].Get)
	if err != nil {
		return nil, err
	}
	if !cfg.debounceFilters {
		texts, err = stream.Debounce(sc, texts, cfg.debounce)
		if err != nil {
			return nil, err
		}
	}

	filterUpdates, err := l.filters.Subscribe(sc)
	if err != nil {
		return nil, err
	}
	filters, err := stream.Map(sc, filterUpdates, cell.Versioned[plant.Filters].Get)
	if err != nil {
		return nil, err
	}

	combined, err := stream.Combine2(sc, texts, filters, func(text string, f plant.Filters) query.Criteria {
		return query.Criteria{Text: text, Filters: f}
	})
	if err != nil {
		return nil, err
	}
	// Debouncing the pair, not each input, lets a text edit and a toggle made
	// within one interval dispatch together.
	if cfg.debounceFilters {
		combined, err = stream.Debounce(sc, combined, cfg.debounce)
		if err != nil {
			return nil, err
		}
	}
	criteria, err := stream.Distinct(sc, combined, query.Criteria.Equal)
	if err != nil {
		return nil, err
	}

	d := dispatch.New(query.Decide, source,
		dispatch.WithLogger(l.logger),
		dispatch.WithObserver(cfg.observer),
		dispatch.WithName("plant_list"),
	)
	return d.Run(sc, criteria)
}

// restore loads saved inputs. Failures fall back to empty inputs.
func (l *PlantList) restore(ctx context.Context) (string, plant.Filters) {
	if l.state == nil {
		return "", plant.Filters{}
	}
	filters, err := l.state.LoadFilters(ctx)
	if err != nil {
		l.logger.Warn("failed to restore filters", slog.Any("error", err))
		filters = plant.Filters{}
	}
	text, err := l.state.LoadSearchText(ctx)
	if err != nil {
		l.logger.Warn("failed to restore search text", slog.Any("error", err))
		text = ""
	}
	return text, filters
}

// persist saves every filter change, and the search text once it settles.
func (l *PlantList) persist(debounce time.Duration, text string, filters plant.Filters) error {
	sc := l.scope

	filterUpdates, err := l.filters.Subscribe(sc)
	if err != nil {
		return err
	}
	if err := sc.Spawn(func(ctx context.Context) {
		last := filters
		for v := range filterUpdates {
			if v.Value.Equal(last) {
				continue
			}
			if err := l.state.SaveFilters(ctx, v.Value); err != nil && ctx.Err() == nil {
				l.logger.Warn("failed to save filters", slog.Any("error", err))
				continue
			}
			last = v.Value
		}
	}); err != nil {
		return err
	}

	textUpdates, err := l.text.Subscribe(sc)
	if err != nil {
		return err
	}
	texts, err := stream.Map(sc, textUpdates, cell.Versioned[string].Get)
	if err != nil {
		return err
	}
	settled, err := stream.Debounce(sc, texts, debounce)
	if err != nil {
		return err
	}
	return sc.Spawn(func(ctx context.Context) {
		last := text
		for v := range settled {
			if v == last {
				continue
			}
			if err := l.state.SaveSearchText(ctx, v); err != nil && ctx.Err() == nil {
				l.logger.Warn("failed to save search text", slog.Any("error", err))
				continue
			}
			last = v
		}
	})
}

// Save writes the current search text and filters to the state store
// without waiting for the text to settle. It is a no-op without a store.
func (l *PlantList) Save(ctx context.Context) error {
	if l.state == nil {
		return nil
	}
	if err := l.state.SaveSearchText(ctx, l.SearchText()); err != nil {
		return fmt.Errorf("save search text: %w", err)
	}
	if err := l.state.SaveFilters(ctx, l.Filters()); err != nil {
		return fmt.Errorf("save filters: %w", err)
	}
	return nil
}

// Debounce returns the quiet period applied before a text change is queried.
func (l *PlantList) Debounce() time.Duration { return l.debounce }

// SetSearchText replaces the search text. It never blocks.
func (l *PlantList) SetSearchText(text string) {
	l.text.Update(text)
}

// ToggleFilter adds t to the filters when absent or removes it when present,
// and returns the resulting set.
func (l *PlantList) ToggleFilter(t plant.Type) plant.Filters {
	return l.filters.Modify(func(f plant.Filters) plant.Filters {
		return f.Toggle(t)
	}).Value
}

// IsFilterEnabled reports whether t is currently selected.
func (l *PlantList) IsFilterEnabled(t plant.Type) bool {
	return l.filters.Load().Value.Contains(t)
}

// ActiveFilterCount returns the number of selected types.
func (l *PlantList) ActiveFilterCount() int {
	return l.filters.Load().Value.Len()
}

// Filters returns the selected types.
func (l *PlantList) Filters() plant.Filters {
	return l.filters.Load().Value
}

// SearchText returns the latest search text, debounced or not.
func (l *PlantList) SearchText() string {
	return l.text.Load().Value
}

// Events returns the query events. The channel has a single consumer and is
// closed when the scope is torn down.
func (l *PlantList) Events() <-chan PlantEvent {
	return l.events
}

// FilterCounts streams the number of selected types, starting with the
// current count. Each call opens an independent subscription.
func (l *PlantList) FilterCounts() (<-chan int, error) {
	updates, err := l.filters.Subscribe(l.scope)
	if err != nil {
		return nil, fmt.Errorf("subscribe filter counts: %w", err)
	}
	return stream.Map(l.scope, updates, func(v cell.Versioned[plant.Filters]) int {
		return v.Value.Len()
	})
}
