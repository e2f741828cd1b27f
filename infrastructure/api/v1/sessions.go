package v1

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/application/service"
	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/infrastructure/api/jsonapi"
	"github.com/helixml/greenhouse/infrastructure/api/middleware"
	"github.com/helixml/greenhouse/internal/log"
)

// SessionRequest is the optional body of POST /sessions. A data.id resumes
// the session saved under that ID.
type SessionRequest struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// SearchRequest is the body of PUT /sessions/{id}/search.
type SearchRequest struct {
	Data struct {
		Attributes struct {
			Text string `json:"text"`
		} `json:"attributes"`
	} `json:"data"`
}

// SessionsRouter handles plant list session endpoints.
type SessionsRouter struct {
	client    *greenhouse.Client
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewSessionsRouter creates a new SessionsRouter.
func NewSessionsRouter(client *greenhouse.Client) *SessionsRouter {
	return &SessionsRouter{
		client:    client,
		logger:    client.Logger(),
		heartbeat: HeartbeatInterval,
	}
}

// Routes returns the chi router for session endpoints.
func (r *SessionsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	// Event streams stay open; everything else is bounded.
	router.Get("/{id}/events", r.Events)

	router.Group(func(router chi.Router) {
		router.Use(chimiddleware.Timeout(RequestTimeout))
		router.Post("/", r.Open)
		router.Get("/{id}", r.Get)
		router.Delete("/{id}", r.Close)
		router.Put("/{id}/search", r.Search)
		router.Post("/{id}/filters/{type}", r.ToggleFilter)
	})

	return router
}

func sessionResource(s *service.Session) *jsonapi.Resource {
	list := s.List()
	return jsonapi.SessionResource(s.ID(), list.SearchText(), list.Filters(), s.CreatedAt(), sessionsPath)
}

// Open handles POST /api/v1/sessions.
func (r *SessionsRouter) Open(w http.ResponseWriter, req *http.Request) {
	var body SessionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	s, err := r.client.Sessions.Open(body.Data.ID)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Location", sessionsPath+"/"+s.ID())
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(sessionResource(s)))
}

// Get handles GET /api/v1/sessions/{id}.
func (r *SessionsRouter) Get(w http.ResponseWriter, req *http.Request) {
	s, err := r.client.Sessions.Get(chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(sessionResource(s)))
}

// Close handles DELETE /api/v1/sessions/{id}. Saved state is kept.
func (r *SessionsRouter) Close(w http.ResponseWriter, req *http.Request) {
	if err := r.client.Sessions.Close(chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles PUT /api/v1/sessions/{id}/search.
func (r *SessionsRouter) Search(w http.ResponseWriter, req *http.Request) {
	s, err := r.client.Sessions.Get(chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	var body SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	s.List().SetSearchText(body.Data.Attributes.Text)
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(sessionResource(s)))
}

// ToggleFilter handles POST /api/v1/sessions/{id}/filters/{type}.
func (r *SessionsRouter) ToggleFilter(w http.ResponseWriter, req *http.Request) {
	s, err := r.client.Sessions.Get(chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	t, err := plant.ParseType(chi.URLParam(req, "type"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	s.List().ToggleFilter(t)
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(sessionResource(s)))
}

// Events handles GET /api/v1/sessions/{id}/events.
//
// The response is a text/event-stream of loading, result and failed events.
// Only one stream per session may be open at a time; a second one gets 409.
// A closed event is sent when the session is deleted.
func (r *SessionsRouter) Events(w http.ResponseWriter, req *http.Request) {
	s, err := r.client.Sessions.Get(chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	events, release, err := s.ClaimEvents()
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	defer release()

	ctx := log.WithSessionID(req.Context(), s.ID())
	stream, err := newEventStream(w)
	if err != nil {
		r.logger.WarnContext(ctx, "event stream unavailable", slog.Any("error", err))
		return
	}

	heartbeat := time.NewTicker(r.heartbeat)
	defer heartbeat.Stop()

	render := func(plants []plant.Plant) (any, jsonapi.Meta) {
		return jsonapi.PlantResources(plants, plantsPath), jsonapi.Meta{"count": len(plants)}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			_ = stream.send("closed", 0, StreamEvent{})
			return
		case ev, ok := <-events:
			if !ok {
				_ = stream.send("closed", 0, StreamEvent{})
				return
			}
			if err := sendDispatch(stream, ev, render); err != nil {
				r.logger.DebugContext(ctx, "event stream ended", slog.Any("error", err))
				return
			}
		case <-heartbeat.C:
			if err := stream.heartbeat(); err != nil {
				return
			}
		}
	}
}
