package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/gamemaps/catalog/loader"
	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/preview"
	"github.com/wricardo/gamemaps/transport/websocket"
)

// previewKey is the single hub key used by the preview server.
const previewKey = "preview"

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "render a dataset file as a Leaflet page",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "preview.html", Usage: "HTML file to write", TakesFile: true},
			&cli.StringFlag{Name: "serve", Usage: "serve the page on this address (e.g. localhost:8090) instead of writing a file"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "re-render whenever FILE changes"},
			&cli.DurationFlag{Name: "interval", Value: time.Second, Usage: "how often --watch checks FILE"},
		},
		Action: runPreview,
	}
}

func runPreview(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return cli.Exit("preview needs FILE", 2)
	}

	src, err := newPreviewSource(path)
	if err != nil {
		return err
	}

	if addr := cmd.String("serve"); addr != "" {
		return servePreview(ctx, src, addr, cmd.Bool("watch"), cmd.Duration("interval"))
	}

	out := cmd.String("output")
	if err := writePreview(out, src.View()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", out)

	if !cmd.Bool("watch") {
		return nil
	}
	slog.Info("Watching for changes", "file", path)
	src.watch(ctx, cmd.Duration("interval"), func(view model.RenderView) {
		if err := writePreview(out, view); err != nil {
			slog.Error("Failed to write preview", "error", err)
			return
		}
		slog.Info("Preview updated", "output", out)
	})
	return nil
}

func writePreview(path string, view model.RenderView) error {
	var buf bytes.Buffer
	if err := preview.Render(&buf, view, preview.Options{}); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// previewSource holds the latest good rendering of one dataset file.
type previewSource struct {
	path string

	mu      sync.Mutex
	view    model.RenderView
	modTime time.Time
	size    int64
}

func newPreviewSource(path string) (*previewSource, error) {
	s := &previewSource{path: path}
	if _, err := s.refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// View returns the last dataset that loaded successfully.
func (s *previewSource) View() model.RenderView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// refresh reloads the file if its size or modification time changed. A file
// that fails to load leaves the previous view in place.
func (s *previewSource) refresh() (bool, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return false, nil
	}

	ds, err := loader.LoadFile(s.path)
	if err != nil {
		return false, err
	}
	loader.LogDangling(slog.Default(), filepath.Base(s.path), ds)

	s.view = ds.Resolve()
	s.modTime = info.ModTime()
	s.size = info.Size()
	return true, nil
}

// watch polls the file until ctx is done and calls onChange with each new view.
func (s *previewSource) watch(ctx context.Context, interval time.Duration, onChange func(model.RenderView)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := s.refresh()
			if err != nil {
				slog.Warn("Dataset reload failed, keeping previous version", "file", s.path, "error", err)
				continue
			}
			if changed {
				onChange(s.View())
			}
		}
	}
}

// previewHandler serves the page, its dataset as JSON, and the live-reload socket.
func previewHandler(src *previewSource, hub *websocket.Hub) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		opts := preview.Options{}
		if hub != nil {
			opts.LiveReloadURL = "ws://" + r.Host + "/ws"
		}

		var buf bytes.Buffer
		if err := preview.Render(&buf, src.View(), opts); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}).Methods("GET")

	router.HandleFunc("/dataset.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		view := src.View()
		if err := json.NewEncoder(w).Encode(view); err != nil {
			slog.Error("Failed to encode dataset", "error", err)
		}
	}).Methods("GET")

	if hub != nil {
		router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			hub.ServeWS(w, r, previewKey)
		})
	}

	return router
}

func servePreview(ctx context.Context, src *previewSource, addr string, watch bool, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var hub *websocket.Hub
	if watch {
		hub = websocket.NewHub()
		go hub.Run(ctx)
		go src.watch(ctx, interval, func(model.RenderView) {
			slog.Info("Dataset changed, reloading pages", "file", src.path)
			hub.BroadcastReload(previewKey)
		})
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           previewHandler(src, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Serving preview", "url", "http://"+addr+"/", "file", src.path, "watch", watch)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
