package plant

import (
	"context"

	"github.com/helixml/greenhouse/domain/repository"
)

// Store persists and queries the plant catalog.
type Store interface {
	Find(ctx context.Context, options ...repository.Option) ([]Plant, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
	Save(ctx context.Context, p Plant) error
	// SaveAll writes every plant in one transaction, replacing existing IDs.
	SaveAll(ctx context.Context, plants []Plant) error
}
