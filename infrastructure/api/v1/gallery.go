package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/domain/gallery"
	"github.com/helixml/greenhouse/infrastructure/api/jsonapi"
	"github.com/helixml/greenhouse/infrastructure/api/middleware"
	"github.com/helixml/greenhouse/internal/scope"
)

// GalleryRouter streams photo searches.
type GalleryRouter struct {
	client    *greenhouse.Client
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewGalleryRouter creates a new GalleryRouter.
func NewGalleryRouter(client *greenhouse.Client) *GalleryRouter {
	return &GalleryRouter{
		client:    client,
		logger:    client.Logger(),
		heartbeat: HeartbeatInterval,
	}
}

// Routes returns the chi router for gallery endpoints.
func (r *GalleryRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/events", r.Events)
	return router
}

// Events handles GET /api/v1/gallery/events?q=.
//
// Each connection runs its own gallery for q and streams every page as a
// result event. The gallery stops when the client disconnects.
func (r *GalleryRouter) Events(w http.ResponseWriter, req *http.Request) {
	logger := r.logger.With(slog.String("component", "gallery"))
	sc := scope.New(req.Context(), scope.WithLogger(logger), scope.WithName("gallery"))
	defer sc.TearDown()

	g, err := r.client.NewGallery(sc, req.URL.Query().Get("q"))
	if errors.Is(err, greenhouse.ErrGalleryDisabled) {
		err = middleware.NewServerError(http.StatusNotImplemented, "gallery is not configured")
	}
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		logger.WarnContext(req.Context(), "event stream unavailable", slog.Any("error", err))
		return
	}

	heartbeat := time.NewTicker(r.heartbeat)
	defer heartbeat.Stop()

	render := func(page gallery.Page) (any, jsonapi.Meta) {
		return jsonapi.PhotoResources(page), jsonapi.PageMeta(page)
	}

	events := g.Events()
	for {
		select {
		case <-sc.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sendDispatch(stream, ev, render); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := stream.heartbeat(); err != nil {
				return
			}
		}
	}
}
