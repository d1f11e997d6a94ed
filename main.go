// Command gamemaps serves the game map catalog.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, preview
//     pages, live-reload WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from the environment (and a .env file), with flags taking
// precedence. Without a data directory the built-in catalog is served.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/gamemaps/api"
	"github.com/wricardo/gamemaps/catalog/data"
	"github.com/wricardo/gamemaps/catalog/loader"
	"github.com/wricardo/gamemaps/catalog/service"
	"github.com/wricardo/gamemaps/transport/mcp"
	"github.com/wricardo/gamemaps/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "gamemaps"
)

// main loads configuration, opens the catalog, and starts the selected mode.
func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	opts, err := parseFlags(&cfg, os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if opts.version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	logger, cleanup, err := newLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()
	slog.SetDefault(logger)

	if envErr == nil {
		slog.Info("Loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		slog.Warn("Error loading .env file", "error", envErr)
	}

	slog.Info("Starting catalog server", "app", AppName, "version", Version, "mode", opts.mode)

	source, manager, err := openCatalog(cfg)
	if err != nil {
		slog.Error("Failed to open catalog", "error", err)
		os.Exit(1)
	}
	mapService := service.NewMapService(source)

	switch opts.mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		err = runStdioMCPWithInternalServer(cfg, mapService)

	case "server", "http":
		err = runHTTPServer(cfg, mapService, manager)

	default:
		err = fmt.Errorf("unknown mode %q, use 'server' (default) or 'stdio-mcp'", opts.mode)
	}

	if err != nil {
		slog.Error("Server failed", "error", err)
		cleanup()
		os.Exit(1)
	}
}

// openCatalog returns the registry source for the configured data. The
// manager is nil when the built-in catalog is served.
func openCatalog(cfg Config) (service.Source, *loader.Manager, error) {
	if cfg.DataDir == "" {
		reg, err := data.Default()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load built-in catalog: %w", err)
		}
		slog.Info("Serving built-in catalog", "datasets", reg.Len())
		return service.StaticSource(reg), nil, nil
	}

	manager, err := loader.NewManager(os.DirFS(cfg.DataDir), cfg.Manifest)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Serving catalog from disk", "dir", cfg.DataDir, "datasets", manager.Registry().Len())
	return manager, manager, nil
}

// newHandler combines the REST API with the /mcp endpoint.
func newHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	return mainRouter
}

// mcpHandler answers one JSON-RPC message per POST.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(cfg Config, mapService service.MapService, manager *loader.Manager) error {
	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(mapService, hub)

	addr := cfg.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	handler := newHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		slog.Info("HTTP server listening", "addr", addr)
		slog.Info("Endpoints",
			"api", fmt.Sprintf("http://%s/api/games", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?game=<game>&map=<map>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr),
		)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if manager != nil && cfg.ReloadInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			catalogReloadRoutine(ctx, manager, hub, cfg.ReloadInterval)
		}()
	}

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg.Ngrok, handler)
		}()
	}

	// Wait for shutdown signal or a listener failure
	var err error
	select {
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	case err = <-serveErr:
		err = fmt.Errorf("HTTP server failed: %w", err)
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("HTTP server shutdown error", "error", shutdownErr)
	}

	wg.Wait()
	slog.Info("Server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done.
func runNgrokTunnel(ctx context.Context, cfg NgrokConfig, handler http.Handler) {
	authToken := cfg.Token()
	if authToken == "" {
		slog.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	slog.Info("Starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		slog.Info("Using custom ngrok domain", "domain", cfg.Domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		slog.Error("Failed to start ngrok tunnel", "error", err)
		return
	}

	// http.Serve does not watch ctx; closing the tunnel ends it.
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			slog.Warn("Failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	slog.Info("Ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api/games",
		"mcp", ngrokURL+"/mcp",
	)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		slog.Error("Ngrok server error", "error", err)
	}
	slog.Info("Ngrok tunnel closed")
}

// catalogReloadRoutine periodically re-reads the data directory and tells
// open preview pages about every dataset that changed. A broken edit is
// logged and the previous catalog stays in service.
func catalogReloadRoutine(ctx context.Context, manager *loader.Manager, hub *websocket.Hub, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reloadOnce(manager, hub)
		}
	}
}

func reloadOnce(manager *loader.Manager, hub *websocket.Hub) {
	changed, err := manager.Reload()
	if err != nil {
		slog.Warn("Catalog reload failed, keeping previous catalog", "error", err)
		return
	}
	for _, key := range changed {
		slog.Info("Dataset changed", "key", key.String())
		hub.BroadcastReload(key.String())
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an API already listening on the configured address; if
// unavailable, it starts an internal HTTP API bound to a random loopback
// port and targets that.
func runStdioMCPWithInternalServer(cfg Config, mapService service.MapService) error {
	externalURL := fmt.Sprintf("http://%s", cfg.Addr())
	slog.Info("Checking for external API server", "url", externalURL)

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/healthz")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		slog.Info("External API server found, using it for MCP", "url", externalURL)
	} else {
		if resp != nil {
			resp.Body.Close()
		}
		slog.Info("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		slog.Info("Starting internal HTTP server for MCP stdio", "addr", internalAddr)

		// No hub: nobody watches previews in stdio mode.
		httpServer := &http.Server{
			Handler: api.NewServer(mapService, nil),
		}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				slog.Error("Internal HTTP server error", "error", err)
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	slog.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
