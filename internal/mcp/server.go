// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/domain/query"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "greenhouse"

// Catalog answers plant lookups for MCP tools.
type Catalog interface {
	Query(ctx context.Context, spec query.Spec) ([]plant.Plant, error)
	Get(ctx context.Context, id string) (plant.Plant, error)
	Count(ctx context.Context, types ...plant.Type) (int64, error)
}

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcpServer *server.MCPServer
	catalog   Catalog
	version   string
	logger    *slog.Logger
}

// NewServer creates a new MCP server over catalog.
func NewServer(catalog Catalog, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		catalog: catalog,
		version: version,
		logger:  logger,
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_plants",
		mcp.WithDescription("Search the plant catalog by name and plant type. "+
			"Text shorter than two characters is ignored; an empty type list matches every type."),
		mcp.WithString("text",
			mcp.Description("Case-insensitive substring of the plant name"),
		),
		mcp.WithArray("types",
			mcp.Description("Plant types to include: flower, vegetable or fruit"),
			mcp.WithStringItems(),
		),
	)
	mcpServer.AddTool(searchTool, s.handleSearchPlants)

	typesTool := mcp.NewTool("list_plant_types",
		mcp.WithDescription("List the plant types with the number of catalog entries of each"),
	)
	mcpServer.AddTool(typesTool, s.handleListPlantTypes)

	versionTool := mcp.NewTool("get_version",
		mcp.WithDescription("Get the greenhouse server version"),
	)
	mcpServer.AddTool(versionTool, s.handleGetVersion)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	template := mcp.NewResourceTemplate(
		PlantURIScheme+"{id}",
		"plant",
		mcp.WithTemplateDescription("A single plant from the catalog"),
		mcp.WithTemplateMIMEType("application/json"),
	)
	mcpServer.AddResourceTemplate(template, s.handleReadPlant)
}

type plantResult struct {
	ID               string `json:"id"`
	URI              string `json:"uri"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Description      string `json:"description,omitempty"`
	GrowZone         int    `json:"grow_zone"`
	WateringInterval int    `json:"watering_interval"`
	ImageURL         string `json:"image_url,omitempty"`
}

func toPlantResult(p plant.Plant) plantResult {
	return plantResult{
		ID:               p.ID(),
		URI:              NewPlantURI(p.ID()).String(),
		Name:             p.Name(),
		Type:             p.Type().String(),
		Description:      p.Description(),
		GrowZone:         p.GrowZone(),
		WateringInterval: p.WateringInterval(),
		ImageURL:         p.ImageURL(),
	}
}

func (s *Server) handleSearchPlants(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("text", "")
	filters, err := plant.ParseFilters(request.GetStringSlice("types", nil)...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	spec := query.Decide(query.Criteria{Text: text, Filters: filters})
	plants, err := s.catalog.Query(ctx, spec)
	if err != nil {
		s.logger.ErrorContext(ctx, "search plants failed", slog.String("query", spec.String()), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]plantResult, len(plants))
	for i, p := range plants {
		results[i] = toPlantResult(p)
	}

	return jsonResult(struct {
		Query  string        `json:"query"`
		Plants []plantResult `json:"plants"`
	}{
		Query:  spec.String(),
		Plants: results,
	})
}

func (s *Server) handleListPlantTypes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type typeResult struct {
		Name  string `json:"name"`
		Count int64  `json:"count"`
	}

	types := plant.AllTypes()
	results := make([]typeResult, 0, len(types))
	for _, t := range types {
		n, err := s.catalog.Count(ctx, t)
		if err != nil {
			s.logger.ErrorContext(ctx, "count plants failed", slog.String("type", t.String()), slog.Any("error", err))
			return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
		}
		results = append(results, typeResult{Name: t.String(), Count: n})
	}
	return jsonResult(results)
}

func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

func (s *Server) handleReadPlant(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri, err := ParsePlantURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	p, err := s.catalog.Get(ctx, uri.ID())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}

	body, err := json.Marshal(toPlantResult(p))
	if err != nil {
		return nil, fmt.Errorf("marshal plant: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri.String(),
			MIMEType: "application/json",
			Text:     string(body),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.mcpServer); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve mcp stdio: %w", err)
	}
	return nil
}
