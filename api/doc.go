// Package api provides HTTP REST API handlers for the game map catalog.
//
// The api package implements:
//   - Read-only catalog endpoints backed by service.MapService
//   - An HTML preview page per map with optional live reload
//   - WebSocket upgrade handling for live reload
//   - Request ids and one access log line per request
//
// Endpoints:
//
// Catalog:
//   - GET /api/games - List games with their map counts
//   - GET /api/games/{game}/maps - List a game's maps
//   - GET /api/games/{game}/maps/{map} - Get the resolved render view of a map
//   - GET /api/games/{game}/maps/{map}/markers?category= - List resolved markers
//   - GET /api/games/{game}/maps/{map}/preview - Leaflet preview page
//
// Authoring:
//   - GET /api/grids - List the grid overlays the preview page can draw
//   - GET /api/schema - JSON Schema of a dataset file
//
// Other:
//   - GET /ws?game=&map= - Subscribe to dataset_updated events
//   - GET /healthz - Liveness probe
//
// Errors are JSON objects of the form {"error": "..."}; unknown maps and
// categories answer 404.
package api
