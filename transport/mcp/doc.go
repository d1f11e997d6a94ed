// Package mcp exposes the game map catalog to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API (package api) and the JSON answer is rendered as plain text.
//
// MCP Tools:
//   - list_games: Games with their map counts
//   - list_maps: Maps of one game
//   - get_map: Map metadata, grid overlay and categories
//   - list_markers: Resolved markers, optionally filtered by category
//   - catalog_instructions: Position convention and resolution rules
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp handled by GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
