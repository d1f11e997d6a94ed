package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/wricardo/gamemaps/catalog/data"
	"github.com/wricardo/gamemaps/catalog/loader"
	"github.com/wricardo/gamemaps/transport/mcp"
	"github.com/wricardo/gamemaps/transport/websocket"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "gamemaps" {
		t.Errorf("Expected app name gamemaps, got %s", AppName)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := loadConfig()
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Port != 8080 || cfg.Host != "localhost" {
			t.Errorf("Unexpected default address %s", cfg.Addr())
		}
		if cfg.Manifest != loader.DefaultManifest {
			t.Errorf("Expected manifest %s, got %s", loader.DefaultManifest, cfg.Manifest)
		}
		if cfg.ReloadInterval != 5*time.Second {
			t.Errorf("Expected 5s reload interval, got %s", cfg.ReloadInterval)
		}
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("DATA_DIR", "/srv/maps")
		t.Setenv("NGROK_ENABLED", "true")
		t.Setenv("NGROK_AUTH_TOKEN", "tok")

		cfg, err := loadConfig()
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Port != 9090 || cfg.DataDir != "/srv/maps" {
			t.Errorf("Environment not applied: %+v", cfg)
		}
		if !cfg.Ngrok.Enabled || cfg.Ngrok.Token() != "tok" {
			t.Errorf("Ngrok settings not applied: %+v", cfg.Ngrok)
		}
	})

	t.Run("Invalid value", func(t *testing.T) {
		t.Setenv("PORT", "not-a-port")

		if _, err := loadConfig(); err == nil {
			t.Error("Expected error for invalid PORT")
		}
	})
}

func TestParseFlags(t *testing.T) {
	t.Run("Flags override environment", func(t *testing.T) {
		cfg := Config{Host: "localhost", Port: 8080, LogLevel: "info"}

		opts, err := parseFlags(&cfg, []string{"-port", "9999", "-debug", "stdio-mcp"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("Failed to parse flags: %v", err)
		}
		if cfg.Port != 9999 {
			t.Errorf("Expected port 9999, got %d", cfg.Port)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("Expected debug log level, got %s", cfg.LogLevel)
		}
		if opts.mode != "stdio-mcp" {
			t.Errorf("Expected stdio-mcp mode, got %s", opts.mode)
		}
	})

	t.Run("Default mode", func(t *testing.T) {
		cfg := Config{Port: 8080}

		opts, err := parseFlags(&cfg, nil, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("Failed to parse flags: %v", err)
		}
		if opts.mode != "server" {
			t.Errorf("Expected server mode, got %s", opts.mode)
		}
		if cfg.Port != 8080 {
			t.Errorf("Expected environment port to survive, got %d", cfg.Port)
		}
	})

	t.Run("Unknown flag", func(t *testing.T) {
		var out bytes.Buffer
		cfg := Config{}

		if _, err := parseFlags(&cfg, []string{"-nope"}, &out); err == nil {
			t.Error("Expected error for unknown flag")
		}
		if !strings.Contains(out.String(), "Available modes") {
			t.Error("Expected usage to be printed")
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Invalid level", func(t *testing.T) {
		if _, _, err := newLogger(Config{LogLevel: "loud"}, &bytes.Buffer{}); err == nil {
			t.Error("Expected error for invalid level")
		}
	})

	t.Run("Console only", func(t *testing.T) {
		var console bytes.Buffer
		logger, cleanup, err := newLogger(Config{LogLevel: "warn"}, &console)
		if err != nil {
			t.Fatalf("Failed to build logger: %v", err)
		}
		defer cleanup()

		logger.Info("hidden")
		logger.Warn("shown", "key", "game_icarus/olympus")

		if strings.Contains(console.String(), "hidden") {
			t.Error("Info should be filtered at warn level")
		}
		if !strings.Contains(console.String(), "key=game_icarus/olympus") {
			t.Errorf("Expected warn record, got %q", console.String())
		}
	})

	t.Run("File receives debug JSON", func(t *testing.T) {
		var console bytes.Buffer
		logFile := filepath.Join(t.TempDir(), "logs", "gamemaps.log")

		logger, cleanup, err := newLogger(Config{LogLevel: "error", LogFile: logFile}, &console)
		if err != nil {
			t.Fatalf("Failed to build logger: %v", err)
		}
		logger.Debug("reloading", "datasets", 2)
		cleanup()

		content, err := os.ReadFile(logFile)
		if err != nil {
			t.Fatalf("Failed to read log file: %v", err)
		}
		if !strings.Contains(string(content), `"msg":"reloading"`) {
			t.Errorf("Expected JSON debug record in file, got %q", content)
		}
		if console.Len() != 0 {
			t.Errorf("Expected nothing on console, got %q", console.String())
		}
	})
}

func copyCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.CopyFS(dir, data.FS()); err != nil {
		t.Fatalf("Failed to copy catalog: %v", err)
	}
	return dir
}

func TestOpenCatalog(t *testing.T) {
	t.Run("Built-in", func(t *testing.T) {
		source, manager, err := openCatalog(Config{})
		if err != nil {
			t.Fatalf("Failed to open catalog: %v", err)
		}
		if manager != nil {
			t.Error("Built-in catalog should not have a manager")
		}
		if source.Registry().Len() != 2 {
			t.Errorf("Expected 2 datasets, got %d", source.Registry().Len())
		}
	})

	t.Run("Data directory", func(t *testing.T) {
		dir := copyCatalog(t)

		source, manager, err := openCatalog(Config{DataDir: dir, Manifest: loader.DefaultManifest})
		if err != nil {
			t.Fatalf("Failed to open catalog: %v", err)
		}
		if manager == nil {
			t.Fatal("Expected a manager for a data directory")
		}
		if _, ok := source.Registry().Get("game_enshrouded", "embervale"); !ok {
			t.Error("Expected embervale in catalog")
		}
	})

	t.Run("Missing manifest", func(t *testing.T) {
		if _, _, err := openCatalog(Config{DataDir: t.TempDir(), Manifest: loader.DefaultManifest}); err == nil {
			t.Error("Expected error for missing manifest")
		}
	})
}

func TestReloadOnceBroadcastsChanges(t *testing.T) {
	dir := copyCatalog(t)
	_, manager, err := openCatalog(Config{DataDir: dir, Manifest: loader.DefaultManifest})
	if err != nil {
		t.Fatalf("Failed to open catalog: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := websocket.NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "game_icarus/olympus")
	}))
	defer server.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Watchers("game_icarus/olympus") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A broken edit keeps the previous catalog.
	olympus := filepath.Join(dir, "game_icarus", "olympus.yaml")
	original, err := os.ReadFile(olympus)
	if err != nil {
		t.Fatalf("Failed to read dataset: %v", err)
	}
	if err := os.WriteFile(olympus, []byte("map: ["), 0644); err != nil {
		t.Fatal(err)
	}
	reloadOnce(manager, hub)
	if _, ok := manager.Registry().Get("game_icarus", "olympus"); !ok {
		t.Fatal("Expected previous catalog to survive a broken edit")
	}

	edited := strings.Replace(string(original), "name: Olympus", "name: Olympus Prime", 1)
	if err := os.WriteFile(olympus, []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}
	reloadOnce(manager, hub)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Expected a reload message: %v", err)
	}
	if msg.Event != websocket.EventDatasetUpdated || msg.Key != "game_icarus/olympus" {
		t.Errorf("Unexpected message: %+v", msg)
	}

	ds, _ := manager.Registry().Get("game_icarus", "olympus")
	if ds.Map().Name() != "Olympus Prime" {
		t.Errorf("Expected reloaded name, got %s", ds.Map().Name())
	}
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://127.0.0.1:1"))

	t.Run("Method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/mcp", nil))

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", w.Code)
		}
	})

	t.Run("Tools list", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("POST", "/mcp", strings.NewReader(body)))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		for _, tool := range []string{"list_games", "list_maps", "get_map", "list_markers"} {
			if !strings.Contains(w.Body.String(), tool) {
				t.Errorf("Expected tool %s in response", tool)
			}
		}
	})
}
