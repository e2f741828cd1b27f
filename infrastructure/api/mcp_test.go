package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/infrastructure/api"
)

func mcpRequest(t *testing.T, method string, id int, params map[string]any) []byte {
	t.Helper()
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func postMCP(t *testing.T, handler http.Handler, body []byte, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func initParams() map[string]any {
	return map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "0.0.1"},
	}
}

// initMCPSession sends an initialize request and returns the session ID.
func initMCPSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	w := postMCP(t, handler, mcpRequest(t, "initialize", 1, initParams()), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sessionID := w.Header().Get("Mcp-Session-Id")
	require.NotEmpty(t, sessionID, "initialize did not return a session ID")
	return sessionID
}

// toolResultText decodes a tools/call response and returns the text content
// and whether the tool reported an error.
func toolResultText(t *testing.T, w *httptest.ResponseRecorder) (string, bool) {
	t.Helper()
	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	if len(resp.Result.Content) == 0 {
		return "", resp.Result.IsError
	}
	return resp.Result.Content[0].Text, resp.Result.IsError
}

func TestMCPEndpoint_Initialize(t *testing.T) {
	handler := api.NewAPIServer(newTestClient(t), nil).Handler()

	w := postMCP(t, handler, mcpRequest(t, "initialize", 1, initParams()), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result struct {
			ServerInfo struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
			Capabilities struct {
				Tools     json.RawMessage `json:"tools"`
				Resources json.RawMessage `json:"resources"`
			} `json:"capabilities"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, "greenhouse", resp.Result.ServerInfo.Name)
	assert.Equal(t, greenhouse.Version, resp.Result.ServerInfo.Version)
	assert.NotNil(t, resp.Result.Capabilities.Tools)
	assert.NotNil(t, resp.Result.Capabilities.Resources)
}

func TestMCPEndpoint_ListTools(t *testing.T) {
	handler := api.NewAPIServer(newTestClient(t), nil).Handler()
	sessionID := initMCPSession(t, handler)

	w := postMCP(t, handler, mcpRequest(t, "tools/list", 2, nil), sessionID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	var names []string
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_plants", "list_plant_types", "get_version"}, names)
}

func TestMCPEndpoint_SearchPlants(t *testing.T) {
	handler := api.NewAPIServer(newTestClient(t), nil).Handler()
	sessionID := initMCPSession(t, handler)

	w := postMCP(t, handler, mcpRequest(t, "tools/call", 2, map[string]any{
		"name":      "search_plants",
		"arguments": map[string]any{"text": "tul"},
	}), sessionID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	text, isError := toolResultText(t, w)
	require.False(t, isError, text)

	var result struct {
		Plants []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"plants"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	require.Len(t, result.Plants, 1)
	assert.Equal(t, "Tulip", result.Plants[0].Name)
}

func TestMCPEndpoint_RejectsInvalidContentType(t *testing.T) {
	handler := api.NewAPIServer(newTestClient(t), nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// MCP must work through the full server middleware stack built by
// ListenAndServe. chi's Timeout wraps the ResponseWriter, which breaks the
// session headers the streamable server writes itself.
func TestMCPEndpoint_ServerMiddlewareStack(t *testing.T) {
	apiServer := api.NewAPIServer(newTestClient(t), nil)
	apiServer.MountRoutes()

	srv := api.NewServer("", nil)
	srv.Router().Mount("/", apiServer.Router())
	handler := srv.Router()

	sessionID := initMCPSession(t, handler)

	w := postMCP(t, handler, mcpRequest(t, "tools/list", 2, nil), sessionID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = postMCP(t, handler, mcpRequest(t, "tools/call", 3, map[string]any{
		"name":      "get_version",
		"arguments": map[string]any{},
	}), sessionID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	text, isError := toolResultText(t, w)
	require.False(t, isError, text)
	assert.Equal(t, greenhouse.Version, text)
}
