// Package api provides the HTTP server, route wiring and API documentation.
package api

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"maps"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

//go:embed openapi.json
var openapiJSON []byte

// DocsTitle is shown by Swagger UI and the OpenAPI document.
const DocsTitle = "Greenhouse API"

var swaggerPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}} Documentation ({{.Version}})</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
    <style>
        html { box-sizing: border-box; overflow-y: scroll; }
        body { margin: 0; background: #f6faf4; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" charset="UTF-8"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: {{.SpecURL}},
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis],
                layout: "BaseLayout"
            });
        };
    </script>
</body>
</html>`))

// loadOpenAPI decodes the embedded document once.
var loadOpenAPI = sync.OnceValues(func() (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(openapiJSON, &doc); err != nil {
		return nil, fmt.Errorf("decode openapi document: %w", err)
	}
	return doc, nil
})

// DocsRouter serves Swagger UI and the OpenAPI document for one build.
type DocsRouter struct {
	specURL string
	version string
}

// NewDocsRouter creates a documentation router. version is reported in the
// page title and as the document's info.version.
func NewDocsRouter(specURL, version string) *DocsRouter {
	return &DocsRouter{specURL: specURL, version: version}
}

// Routes returns the chi router for documentation endpoints.
func (d *DocsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", d.page)
	router.Get("/openapi.json", d.document)
	return router
}

func (d *DocsRouter) page(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = swaggerPage.Execute(w, struct {
		Title, Version, SpecURL string
	}{DocsTitle, d.version, d.specURL})
}

// document serves the OpenAPI document with the build version and a server
// URL matching the incoming request, so "Try it out" works on any host.
func (d *DocsRouter) document(w http.ResponseWriter, r *http.Request) {
	base, err := loadOpenAPI()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	doc := maps.Clone(base)
	info, _ := doc["info"].(map[string]any)
	info = maps.Clone(info)
	if info == nil {
		info = map[string]any{}
	}
	info["title"] = DocsTitle
	info["version"] = d.version
	doc["info"] = info
	doc["servers"] = []map[string]string{{"url": requestBaseURL(r) + "/api/v1"}}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// requestBaseURL rebuilds scheme and host, honouring reverse proxy headers.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host := r.Host
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return scheme + "://" + host
}
