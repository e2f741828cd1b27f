package service

import (
	"context"

	"github.com/helixml/greenhouse/domain/plant"
)

// StateStore keeps a plant list's inputs across restarts.
type StateStore interface {
	LoadFilters(ctx context.Context) (plant.Filters, error)
	SaveFilters(ctx context.Context, f plant.Filters) error
	LoadSearchText(ctx context.Context) (string, error)
	SaveSearchText(ctx context.Context, text string) error
}

// StateStoreFactory returns the StateStore for one namespace, such as a session ID.
type StateStoreFactory func(namespace string) StateStore
