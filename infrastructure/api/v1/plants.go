// Package v1 provides the version 1 HTTP routes.
package v1

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/domain/query"
	"github.com/helixml/greenhouse/infrastructure/api/jsonapi"
	"github.com/helixml/greenhouse/infrastructure/api/middleware"
)

// RequestTimeout bounds every non-streaming request.
const RequestTimeout = 60 * time.Second

// PlantsRouter handles the plant catalog endpoints.
type PlantsRouter struct {
	client *greenhouse.Client
	logger *slog.Logger
}

// NewPlantsRouter creates a new PlantsRouter.
func NewPlantsRouter(client *greenhouse.Client) *PlantsRouter {
	return &PlantsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for plant endpoints.
func (r *PlantsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.Timeout(RequestTimeout))

	router.Get("/", r.List)
	router.Get("/{id}", r.Get)

	return router
}

// TypesRoutes returns the chi router for plant type endpoints.
func (r *PlantsRouter) TypesRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.Timeout(RequestTimeout))

	router.Get("/", r.ListTypes)

	return router
}

// parseCriteria reads the q and types query parameters. types is a comma
// separated list and may be repeated.
func parseCriteria(req *http.Request) (query.Criteria, error) {
	values := req.URL.Query()
	var names []string
	for _, v := range values["types"] {
		names = append(names, strings.Split(v, ",")...)
	}
	filters, err := plant.ParseFilters(names...)
	if err != nil {
		return query.Criteria{}, err
	}
	return query.Criteria{Text: values.Get("q"), Filters: filters}, nil
}

// List handles GET /api/v1/plants.
//
// The q and types parameters are combined with the same decision table a
// plant list session uses: text shorter than two characters is ignored.
func (r *PlantsRouter) List(w http.ResponseWriter, req *http.Request) {
	criteria, err := parseCriteria(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	window, err := ParseWindow(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	spec := query.Decide(criteria)

	plants, total, err := r.client.Catalog.Page(req.Context(), spec, window.Size, window.Offset())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	meta := window.Meta(total)
	meta["query"] = spec.String()
	middleware.WriteJSON(w, http.StatusOK,
		jsonapi.NewListResponse(jsonapi.PlantResources(plants, plantsPath)).
			WithMeta(meta).
			WithLinks(window.Links(req.URL, total)),
	)
}

// Get handles GET /api/v1/plants/{id}.
func (r *PlantsRouter) Get(w http.ResponseWriter, req *http.Request) {
	p, err := r.client.Catalog.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.PlantResource(p, plantsPath)))
}

// ListTypes handles GET /api/v1/plant-types.
func (r *PlantsRouter) ListTypes(w http.ResponseWriter, req *http.Request) {
	types := plant.AllTypes()
	resources := make([]*jsonapi.Resource, 0, len(types))
	for _, t := range types {
		n, err := r.client.Catalog.Count(req.Context(), t)
		if err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
		resources = append(resources, jsonapi.PlantTypeResource(t, n))
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(resources))
}

const (
	plantsPath   = "/api/v1/plants"
	sessionsPath = "/api/v1/sessions"
)
