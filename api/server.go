package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/wricardo/gamemaps/catalog/loader"
	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/preview"
	"github.com/wricardo/gamemaps/catalog/registry"
	"github.com/wricardo/gamemaps/catalog/service"
	"github.com/wricardo/gamemaps/transport/websocket"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-ID"

// Server represents the REST API server
type Server struct {
	service service.MapService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case /ws
// answers 503 and preview pages are rendered without live reload.
func NewServer(mapService service.MapService, hub *websocket.Hub) *Server {
	s := &Server{
		service: mapService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger)

	api := s.router.PathPrefix("/api").Subrouter()

	// Catalog
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{game}/maps", s.handleListMaps).Methods("GET")
	api.HandleFunc("/games/{game}/maps/{map}", s.handleGetMap).Methods("GET")
	api.HandleFunc("/games/{game}/maps/{map}/markers", s.handleListMarkers).Methods("GET")
	api.HandleFunc("/games/{game}/maps/{map}/preview", s.handlePreview).Methods("GET")

	// Authoring helpers
	api.HandleFunc("/grids", s.handleListGrids).Methods("GET")
	api.HandleFunc("/schema", s.handleSchema).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMapNotFound), errors.Is(err, service.ErrCategoryNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// statusRecorder remembers the status written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack lets websocket upgrades pass through the logger.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// requestLogger assigns a request id and logs one line per request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		slog.Info("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// Catalog Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	game := mux.Vars(r)["game"]

	maps, err := s.service.ListMaps(r.Context(), game)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game":  game,
		"maps":  maps,
		"count": len(maps),
	})
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	detail, err := s.service.GetMap(r.Context(), vars["game"], vars["map"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	category := r.URL.Query().Get("category")

	markers, err := s.service.ResolveMarkers(r.Context(), vars["game"], vars["map"], category)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if markers == nil {
		markers = []model.ResolvedMarker{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game":     vars["game"],
		"map":      vars["map"],
		"category": category,
		"markers":  markers,
		"count":    len(markers),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	detail, err := s.service.GetMap(r.Context(), vars["game"], vars["map"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var opts preview.Options
	if s.hub != nil {
		opts.LiveReloadURL = liveReloadURL(r, vars["game"], vars["map"])
	}

	var buf bytes.Buffer
	if err := preview.Render(&buf, detail.RenderView, opts); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// liveReloadURL points the preview page back at this server's /ws endpoint
func liveReloadURL(r *http.Request, game, mapSlug string) string {
	scheme := "ws"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "wss"
	}
	return scheme + "://" + r.Host + "/ws?game=" + game + "&map=" + mapSlug
}

func (s *Server) handleListGrids(w http.ResponseWriter, r *http.Request) {
	grids := preview.GridSystems()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"grids": grids,
		"count": len(grids),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, loader.Schema())
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live reload disabled", http.StatusServiceUnavailable)
		return
	}

	game := r.URL.Query().Get("game")
	mapSlug := r.URL.Query().Get("map")
	if game == "" || mapSlug == "" {
		http.Error(w, "game and map parameters required", http.StatusBadRequest)
		return
	}

	// Verify the dataset exists
	if _, err := s.service.GetMap(r.Context(), game, mapSlug); err != nil {
		http.Error(w, "Unknown map", http.StatusNotFound)
		return
	}

	// Upgrade to WebSocket
	s.hub.ServeWS(w, r, registry.Key{Game: game, Map: mapSlug}.String())
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
