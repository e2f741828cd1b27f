package service

import (
	"fmt"
	"log/slog"

	"github.com/helixml/greenhouse/domain/gallery"
	"github.com/helixml/greenhouse/internal/cell"
	"github.com/helixml/greenhouse/internal/dispatch"
	"github.com/helixml/greenhouse/internal/scope"
	"github.com/helixml/greenhouse/internal/stream"
)

// PhotoSource runs photo searches.
type PhotoSource = dispatch.Source[string, gallery.Page]

// PhotoEvent is one observation of a gallery's current search.
type PhotoEvent = dispatch.Event[gallery.Page]

// Gallery re-runs a photo search whenever its text changes, cancelling the
// search already in flight. There is no debounce.
type Gallery struct {
	text   *cell.Cell[string]
	events <-chan PhotoEvent
}

// NewGallery starts a gallery under sc that immediately searches for initial.
func NewGallery(sc *scope.Scope, source PhotoSource, initial string, opts ...Option) (*Gallery, error) {
	cfg := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Gallery{text: cell.New(initial)}

	updates, err := g.text.Subscribe(sc)
	if err != nil {
		return nil, fmt.Errorf("create gallery: %w", err)
	}
	texts, err := stream.Map(sc, updates, cell.Versioned[string].Get)
	if err != nil {
		return nil, fmt.Errorf("create gallery: %w", err)
	}
	distinct, err := stream.Distinct(sc, texts, func(a, b string) bool {
		return gallery.NormalizeQuery(a) == gallery.NormalizeQuery(b)
	})
	if err != nil {
		return nil, fmt.Errorf("create gallery: %w", err)
	}

	d := dispatch.New(gallery.NormalizeQuery, source,
		dispatch.WithLogger(cfg.logger),
		dispatch.WithObserver(cfg.observer),
		dispatch.WithName("gallery"),
	)
	g.events, err = d.Run(sc, distinct)
	if err != nil {
		return nil, fmt.Errorf("create gallery: %w", err)
	}
	return g, nil
}

// Search replaces the search text. It never blocks.
func (g *Gallery) Search(text string) {
	g.text.Update(text)
}

// Query returns the latest search text.
func (g *Gallery) Query() string {
	return g.text.Load().Value
}

// Events returns the search events. The channel has a single consumer and is
// closed when the scope is torn down.
func (g *Gallery) Events() <-chan PhotoEvent {
	return g.events
}
