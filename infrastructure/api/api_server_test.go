package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/infrastructure/api"
)

const seedPlants = `[
  {"plantId": "malus-pumila", "name": "Apple", "plantType": "fruit", "growZoneNumber": 3},
  {"plantId": "tulipa", "name": "Tulip", "plantType": "flower"},
  {"plantId": "solanum", "name": "Tomato", "plantType": "vegetable"}
]`

func newTestClient(t *testing.T, opts ...greenhouse.Option) *greenhouse.Client {
	t.Helper()
	tmpDir := t.TempDir()
	seed := filepath.Join(tmpDir, "plants.json")
	require.NoError(t, os.WriteFile(seed, []byte(seedPlants), 0o644))

	base := []greenhouse.Option{
		greenhouse.WithSQLite(filepath.Join(tmpDir, "test.db")),
		greenhouse.WithDataDir(tmpDir),
		greenhouse.WithDebounce(0),
		greenhouse.WithSeedFile(seed),
	}
	client, err := greenhouse.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func serve(handler http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestAPIServer_ReadEndpointsOpen_WriteEndpointsProtected(t *testing.T) {
	client := newTestClient(t)
	apiServer := api.NewAPIServer(client, []string{"test-secret-key"})
	router := apiServer.Router()

	apiServer.MountRoutes()

	docsRouter := apiServer.DocsRouter("/docs/openapi.json")
	router.Mount("/docs", docsRouter.Routes())

	withKey := map[string]string{"X-API-KEY": "test-secret-key"}

	t.Run("GET /docs returns 200 without API key", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/docs/", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Greenhouse API Documentation")
	})

	t.Run("GET /api/v1/plants returns 200 without API key", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/plants", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("GET /api/v1/plant-types returns 200 without API key", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/plant-types", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("POST /api/v1/sessions without key returns 401", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/api/v1/sessions", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	})

	t.Run("POST /api/v1/sessions with wrong key returns 401", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/api/v1/sessions", "", map[string]string{"X-API-KEY": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("POST /api/v1/sessions with valid key returns 201", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/api/v1/sessions", "", withKey)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/api/v1/sessions/"))
	})

	t.Run("DELETE /api/v1/sessions/unknown without key returns 401", func(t *testing.T) {
		w := serve(router, http.MethodDelete, "/api/v1/sessions/unknown", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("DELETE /api/v1/sessions/unknown with key returns 404", func(t *testing.T) {
		w := serve(router, http.MethodDelete, "/api/v1/sessions/unknown", "", withKey)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAPIServer_OpenWithoutKeys(t *testing.T) {
	client := newTestClient(t)
	handler := api.NewAPIServer(client, nil).Handler()

	w := serve(handler, http.MethodPost, "/api/v1/sessions", "", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAPIServer_Metrics(t *testing.T) {
	client := newTestClient(t)
	handler := api.NewAPIServer(client, nil).Handler()

	w := serve(handler, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAPIServer_CORS(t *testing.T) {
	client := newTestClient(t)
	handler := api.NewAPIServer(client, nil).
		WithAllowedOrigins("https://garden.example").
		Handler()

	t.Run("preflight from allowed origin", func(t *testing.T) {
		w := serve(handler, http.MethodOptions, "/api/v1/sessions", "", map[string]string{
			"Origin":                        "https://garden.example",
			"Access-Control-Request-Method": http.MethodPost,
		})
		assert.Equal(t, "https://garden.example", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origins are not echoed", func(t *testing.T) {
		w := serve(handler, http.MethodGet, "/api/v1/plants", "", map[string]string{
			"Origin": "https://elsewhere.example",
		})
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestDocsRouter_RewritesServerURL(t *testing.T) {
	router := api.NewDocsRouter("/docs/openapi.json", "1.4.2").Routes()

	decode := func(t *testing.T, header map[string]string) (string, string, string) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
		req.Host = "garden.example:9000"
		for k, v := range header {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var doc struct {
			Info struct {
				Title   string `json:"title"`
				Version string `json:"version"`
			} `json:"info"`
			Servers []struct {
				URL string `json:"url"`
			} `json:"servers"`
			Paths map[string]any `json:"paths"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&doc))
		require.Len(t, doc.Servers, 1)
		assert.Contains(t, doc.Paths, "/plants")
		return doc.Info.Title, doc.Info.Version, doc.Servers[0].URL
	}

	title, version, url := decode(t, nil)
	assert.Equal(t, api.DocsTitle, title)
	assert.Equal(t, "1.4.2", version)
	assert.Equal(t, "http://garden.example:9000/api/v1", url)

	_, _, url = decode(t, map[string]string{
		"X-Forwarded-Proto": "https",
		"X-Forwarded-Host":  "plants.example, proxy.internal",
	})
	assert.Equal(t, "https://plants.example/api/v1", url)
}

func TestDocsRouter_PageShowsVersion(t *testing.T) {
	router := api.NewDocsRouter("/docs/openapi.json", "1.4.2").Routes()

	w := serve(router, http.MethodGet, "/", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Greenhouse API Documentation (1.4.2)")
	assert.Contains(t, w.Body.String(), "openapi.json")
}
