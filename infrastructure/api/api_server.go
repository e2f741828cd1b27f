package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/helixml/greenhouse"
	apimiddleware "github.com/helixml/greenhouse/infrastructure/api/middleware"
	v1 "github.com/helixml/greenhouse/infrastructure/api/v1"
	mcpinternal "github.com/helixml/greenhouse/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// APIServer provides an HTTP API backed by a greenhouse Client.
type APIServer struct {
	client       *greenhouse.Client
	apiKeys      []string
	origins      []string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given Client.
// apiKeys configures write-protection: mutating endpoints (POST, PUT, PATCH,
// DELETE) under /api/v1 require a valid key. Reads, event streams, metrics,
// MCP and docs remain open.
func NewAPIServer(client *greenhouse.Client, apiKeys []string) *APIServer {
	return &APIServer{
		client:  client,
		apiKeys: apiKeys,
		origins: []string{"*"},
		logger:  client.Logger(),
	}
}

// WithAllowedOrigins restricts CORS to the given origins.
func (a *APIServer) WithAllowedOrigins(origins ...string) *APIServer {
	if len(origins) > 0 {
		a.origins = origins
	}
	return a
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	plantsRouter := v1.NewPlantsRouter(c)
	sessionsRouter := v1.NewSessionsRouter(c)
	galleryRouter := v1.NewGalleryRouter(c)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", apimiddleware.APIKeyHeader, apimiddleware.CorrelationIDHeader, "Last-Event-ID"},
			ExposedHeaders: []string{"Location", apimiddleware.CorrelationIDHeader},
			MaxAge:         300,
		}))
		r.Use(apimiddleware.WriteProtectAuth(a.apiKeys))

		// Timeouts are applied per router so event streams stay open.
		r.Mount("/plants", plantsRouter.Routes())
		r.Mount("/plant-types", plantsRouter.TypesRoutes())
		r.Mount("/sessions", sessionsRouter.Routes())
		r.Mount("/gallery", galleryRouter.Routes())
	})

	router.With(chimiddleware.Timeout(v1.RequestTimeout)).Handle("/metrics", c.Metrics().Handler())

	// MCP manages its own streaming responses and session headers, which
	// chi's Timeout middleware would break.
	mcpSrv := mcpinternal.NewServer(c.Catalog, greenhouse.Version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

// DocsRouter returns a router for Swagger UI and the OpenAPI document of
// this build.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL, greenhouse.Version)
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.server = &srv

	if a.routerCalled && a.router != nil {
		srv.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(srv.Router())
	}

	return srv.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
