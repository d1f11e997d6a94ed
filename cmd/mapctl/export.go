package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gamemaps/catalog/sheet"
	"github.com/wricardo/gamemaps/catalog/storage/sqlite"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "export the catalog to another format",
		Commands: []*cli.Command{
			{
				Name:  "sqlite",
				Usage: "write the catalog into a SQLite database",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Required: true, Usage: "database file", TakesFile: true},
				},
				Action: exportSQLite,
			},
			{
				Name:  "xlsx",
				Usage: "write resolved markers to a spreadsheet, one sheet per map",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "markers.xlsx", Usage: "spreadsheet file", TakesFile: true},
				},
				Action: exportXLSX,
			},
		},
	}
}

func exportSQLite(ctx context.Context, cmd *cli.Command) error {
	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cmd.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.PutRegistry(ctx, reg); err != nil {
		return err
	}

	w := cmd.Root().Writer
	for _, game := range reg.Games() {
		rows, err := store.ListMaps(ctx, game)
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Fprintf(w, "stored %s/%s (%d markers)\n", r.Game, r.Slug, r.MarkerCount)
		}
	}
	return nil
}

func exportXLSX(ctx context.Context, cmd *cli.Command) error {
	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}

	path := cmd.String("out")
	if err := sheet.Save(path, reg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "wrote %d maps to %s\n", reg.Len(), path)
	return nil
}
