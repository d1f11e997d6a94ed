// Package service provides the query layer over the map catalog.
//
// The service package implements:
//   - Game and map listings with summary counts
//   - Full dataset views with every marker already resolved
//   - Marker queries filtered by category
//
// Core Interfaces:
//
// MapService is the interface consumed by the transports (REST, MCP).
// Source hands out the registry currently in effect, which lets a reloading
// loader.Manager swap datasets without the service noticing.
//
// Usage:
//
//	reg, err := data.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := service.NewMapService(service.StaticSource(reg))
//
//	detail, err := svc.GetMap(ctx, "game_enshrouded", "embervale")
//	if errors.Is(err, service.ErrMapNotFound) {
//		// respond 404
//	}
//
// Not Found:
//
// The registry reports unknown (game, map) pairs as absent. The service turns
// that into ErrMapNotFound so transports can map it onto their own status
// codes.
package service
