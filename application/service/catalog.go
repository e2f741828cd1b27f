package service

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/domain/query"
	"github.com/helixml/greenhouse/domain/repository"
)

// Catalog answers plant queries and notifies live queries when plants change.
type Catalog struct {
	store  plant.Store
	logger *slog.Logger
	limit  int

	mu       sync.Mutex
	revision uint64
	changed  chan struct{}
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithSearchLimit caps the number of plants a query returns. Zero means no cap.
func WithSearchLimit(n int) CatalogOption {
	return func(c *Catalog) { c.limit = n }
}

// NewCatalog creates a Catalog over store.
func NewCatalog(store plant.Store, logger *slog.Logger, opts ...CatalogOption) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		store:   store,
		logger:  logger,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query runs spec once.
func (c *Catalog) Query(ctx context.Context, spec query.Spec) ([]plant.Plant, error) {
	opts := spec.Options()
	if c.limit > 0 {
		opts = append(opts, repository.WithLimit(c.limit))
	}
	plants, err := c.store.Find(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("query plants %s: %w", spec, err)
	}
	return plants, nil
}

// Page runs spec for one page of results and returns the total number of
// matches. The search limit does not apply.
func (c *Catalog) Page(ctx context.Context, spec query.Spec, limit, offset int) ([]plant.Plant, int64, error) {
	total, err := c.store.Count(ctx, spec.Options()...)
	if err != nil {
		return nil, 0, fmt.Errorf("count plants %s: %w", spec, err)
	}
	opts := append(spec.Options(), repository.WithLimit(limit), repository.WithOffset(offset))
	plants, err := c.store.Find(ctx, opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("query plants %s: %w", spec, err)
	}
	return plants, total, nil
}

// Get returns the plant with the given ID.
func (c *Catalog) Get(ctx context.Context, id string) (plant.Plant, error) {
	plants, err := c.store.Find(ctx, plant.WithID(id), repository.WithLimit(1))
	if err != nil {
		return plant.Plant{}, fmt.Errorf("get plant %s: %w", id, err)
	}
	if len(plants) == 0 {
		return plant.Plant{}, fmt.Errorf("get plant %s: %w", id, ErrPlantNotFound)
	}
	return plants[0], nil
}

// Execute runs spec and yields its result, then yields a fresh result every
// time the catalog changes until ctx is done.
func (c *Catalog) Execute(ctx context.Context, spec query.Spec) iter.Seq2[[]plant.Plant, error] {
	return func(yield func([]plant.Plant, error) bool) {
		for {
			changed := c.watch()

			plants, err := c.Query(ctx, spec)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(plants, nil) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
		}
	}
}

// Import saves plants and wakes every live query.
func (c *Catalog) Import(ctx context.Context, plants []plant.Plant) error {
	if err := c.store.SaveAll(ctx, plants); err != nil {
		return fmt.Errorf("import plants: %w", err)
	}
	rev := c.bump()
	c.logger.Info("catalog updated", slog.Int("plants", len(plants)), slog.Uint64("revision", rev))
	return nil
}

// Count returns the number of plants, optionally narrowed to the given types.
func (c *Catalog) Count(ctx context.Context, types ...plant.Type) (int64, error) {
	var opts []repository.Option
	if len(types) > 0 {
		opts = append(opts, plant.WithTypeIn(plant.NewFilters(types...)))
	}
	n, err := c.store.Count(ctx, opts...)
	if err != nil {
		return 0, fmt.Errorf("count plants: %w", err)
	}
	return n, nil
}

// Revision returns the number of imports applied since the catalog was created.
func (c *Catalog) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

func (c *Catalog) watch() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

func (c *Catalog) bump() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revision++
	close(c.changed)
	c.changed = make(chan struct{})
	return c.revision
}
