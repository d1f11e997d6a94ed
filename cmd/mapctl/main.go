// Command mapctl is the data author's tool for the map catalog: it renders
// preview pages for a single dataset file, prints the dataset JSON Schema,
// lists and dumps catalog entries, and exports the catalog to SQLite or a
// spreadsheet.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gamemaps/catalog/data"
	"github.com/wricardo/gamemaps/catalog/loader"
	"github.com/wricardo/gamemaps/catalog/registry"
)

// Version of the tool.
const Version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mapctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "mapctl",
		Usage:   "author, preview and export game map datasets",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "catalog directory holding a manifest (default: built-in catalog)",
				Sources: cli.EnvVars("DATA_DIR"),
			},
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "manifest file name inside --data-dir",
				Value: loader.DefaultManifest,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log debug records",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelInfo
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: level})))
			return ctx, nil
		},
		Commands: []*cli.Command{
			previewCommand(),
			schemaCommand(),
			listCommand(),
			dumpCommand(),
			exportCommand(),
		},
	}
}

// loadRegistry reads the catalog selected by the global flags.
func loadRegistry(cmd *cli.Command) (*registry.Registry, error) {
	dir := cmd.String("data-dir")
	if dir == "" {
		return data.Load()
	}
	return loader.LoadCatalog(os.DirFS(dir), cmd.String("manifest"))
}
