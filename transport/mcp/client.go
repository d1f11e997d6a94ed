package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Game Map Catalog",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Game Map Catalog - MCP Interface

This is a thin client that proxies all requests to the REST API server.
The catalog is read-only: every game has one or more maps, each map has
categories, and markers point at a category by slug.

AVAILABLE TOOLS:
- list_games: List games and how many maps each has
- list_maps: List the maps of one game
- get_map: Map metadata, grid overlay and categories of one map
- list_markers: Resolved markers of one map, optionally for one category
- catalog_instructions: How positions and resolution work

Positions are fractions in [0, 1] measured from the bottom-left corner of the
map image. Multiply by image_width / image_height to get pixels.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List every game in the catalog with its map count",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List the maps of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game": map[string]interface{}{
					"type":        "string",
					"description": "Game id, e.g. game_enshrouded",
				},
			},
			Required: []string{"game"},
		},
	}, c.handleListMaps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_map",
		Description: "Get map metadata, grid overlay settings and categories with marker counts",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game": map[string]interface{}{
					"type":        "string",
					"description": "Game id",
				},
				"map": map[string]interface{}{
					"type":        "string",
					"description": "Map slug",
				},
			},
			Required: []string{"game", "map"},
		},
	}, c.handleGetMap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_markers",
		Description: "List a map's markers with their effective name, description and icon",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game": map[string]interface{}{
					"type":        "string",
					"description": "Game id",
				},
				"map": map[string]interface{}{
					"type":        "string",
					"description": "Map slug",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Only markers of this category slug (optional)",
				},
			},
			Required: []string{"game", "map"},
		},
	}, c.handleListMarkers)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "catalog_instructions",
		Description: "Explain the catalog's position convention and marker resolution rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleCatalogInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func mapPath(game, mapSlug string) string {
	return "/api/games/" + url.PathEscape(game) + "/maps/" + url.PathEscape(mapSlug)
}

// Tool handlers

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                `json:"count"`
		Games []service.GameInfo `json:"games"`
	}

	if err := c.apiCall(ctx, "GET", "/api/games", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Games (%d):\n\n", response.Count)
	for _, g := range response.Games {
		result += fmt.Sprintf("- %s (%d maps)\n", g.ID, g.MapCount)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	game, _ := args["game"].(string)
	if game == "" {
		return mcp.NewToolResultError("game is required"), nil
	}

	var response struct {
		Count int               `json:"count"`
		Maps  []service.MapInfo `json:"maps"`
	}

	if err := c.apiCall(ctx, "GET", "/api/games/"+url.PathEscape(game)+"/maps", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No maps for game %s\n", game)), nil
	}

	result := fmt.Sprintf("Maps of %s (%d):\n\n", game, response.Count)
	for _, m := range response.Maps {
		result += formatMapInfo(&m)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	game, _ := args["game"].(string)
	mapSlug, _ := args["map"].(string)
	if game == "" || mapSlug == "" {
		return mcp.NewToolResultError("game and map are required"), nil
	}

	var detail service.MapDetail
	if err := c.apiCall(ctx, "GET", mapPath(game, mapSlug), nil, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMapDetail(&detail)), nil
}

func (c *Client) handleListMarkers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	game, _ := args["game"].(string)
	mapSlug, _ := args["map"].(string)
	category, _ := args["category"].(string)
	if game == "" || mapSlug == "" {
		return mcp.NewToolResultError("game and map are required"), nil
	}

	path := mapPath(game, mapSlug) + "/markers"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	var response struct {
		Count   int                    `json:"count"`
		Markers []model.ResolvedMarker `json:"markers"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMarkers(game, mapSlug, category, response.Markers)), nil
}

func (c *Client) handleCatalogInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Game Map Catalog - Instructions

LAYOUT:
- A game (e.g. game_enshrouded) owns one or more maps, keyed by map slug.
- A map owns categories (slug, name, color, icon, defaults).
- A marker names its category through category_slug.

POSITIONS:
- position_x and position_y are fractions in [0, 1].
- (0, 0) is the bottom-left corner of the map image, (1, 1) the top-right.
- pixel_x = position_x * image_width, pixel_y = position_y * image_height.

MARKER RESOLUTION:
- name: the marker's own name, else the category's default_name, else the category name.
- description: the marker's own description, else the category's default_description.
- icon: the marker's own icon, else the category icon.
- Markers whose category_slug matches no category are skipped.

GRID OVERLAYS:
- grid_system names an overlay drawn by the preview page (see /api/grids).
- grid_options carries line and label styling; missing values use defaults.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatMapInfo(m *service.MapInfo) string {
	image := "single image"
	if m.Tiled {
		image = "tiled"
	}
	line := fmt.Sprintf("- %s: %s (%dx%d, %s", m.Slug, m.Name, m.ImageWidth, m.ImageHeight, image)
	if m.GridSystem != "" {
		line += ", grid " + m.GridSystem
	}
	return line + fmt.Sprintf(", %d categories, %d markers)\n", m.CategoryCount, m.MarkerCount)
}

func formatMapDetail(d *service.MapDetail) string {
	var b strings.Builder
	m := d.Map

	fmt.Fprintf(&b, "%s (%s/%s)\n", m.Name, d.Game, m.Slug)
	if m.Description != "" {
		fmt.Fprintf(&b, "%s\n", m.Description)
	}
	fmt.Fprintf(&b, "\nImage: %dx%d px", m.ImageWidth, m.ImageHeight)
	if m.TileURL != "" {
		fmt.Fprintf(&b, ", tiles of %d px from %s\n", m.TileSize, m.TileURL)
	} else {
		fmt.Fprintf(&b, ", %s\n", m.ImageURL)
	}
	fmt.Fprintf(&b, "Zoom: %d..%d (default %d)\n", m.MinZoom, m.MaxZoom, m.DefaultZoom)
	fmt.Fprintf(&b, "Default center: (%.3f, %.3f)\n", m.DefaultCenterX, m.DefaultCenterY)
	if m.GridSystem != "" {
		visible := "hidden"
		if m.GridVisibleByDefault {
			visible = "visible"
		}
		fmt.Fprintf(&b, "Grid: %s (%s by default)\n", m.GridSystem, visible)
	}

	fmt.Fprintf(&b, "\nCategories (%d):\n", len(d.Categories))
	for _, c := range d.Categories {
		hidden := ""
		if !c.IsVisibleByDefault {
			hidden = ", hidden by default"
		}
		fmt.Fprintf(&b, "- %s: %s %s, %d markers%s\n", c.Slug, c.Name, c.Color, c.MarkerCount, hidden)
	}

	if len(d.Dangling) > 0 {
		fmt.Fprintf(&b, "\nSkipped markers (%d):\n", len(d.Dangling))
		for _, dr := range d.Dangling {
			fmt.Fprintf(&b, "- %s\n", dr.Error())
		}
	}

	return b.String()
}

func formatMarkers(game, mapSlug, category string, markers []model.ResolvedMarker) string {
	var b strings.Builder

	scope := game + "/" + mapSlug
	if category != "" {
		scope += " category " + category
	}
	fmt.Fprintf(&b, "Markers of %s (%d):\n\n", scope, len(markers))

	for _, m := range markers {
		fmt.Fprintf(&b, "- %s [%s] at (%.4f, %.4f)", m.Name, m.CategorySlug, m.PositionX, m.PositionY)
		if m.Description != "" {
			fmt.Fprintf(&b, ": %s", m.Description)
		}
		b.WriteString("\n")
	}

	return b.String()
}
