package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gamemaps/catalog/loader"
	"github.com/wricardo/gamemaps/catalog/service"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "print the JSON Schema of a dataset file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write to this file instead of stdout", TakesFile: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out, err := json.MarshalIndent(loader.Schema(), "", "  ")
			if err != nil {
				return err
			}
			out = append(out, '\n')

			if path := cmd.String("out"); path != "" {
				return os.WriteFile(path, out, 0644)
			}
			_, err = cmd.Root().Writer.Write(out)
			return err
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list every map of the catalog",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			svc := service.NewMapService(service.StaticSource(reg))

			games, err := svc.ListGames(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GAME\tMAP\tNAME\tSIZE\tGRID\tCATEGORIES\tMARKERS")
			for _, g := range games {
				maps, err := svc.ListMaps(ctx, g.ID)
				if err != nil {
					return err
				}
				for _, m := range maps {
					grid := m.GridSystem
					if grid == "" {
						grid = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%s\t%d\t%d\n",
						m.Game, m.Slug, m.Name, m.ImageWidth, m.ImageHeight, grid, m.CategoryCount, m.MarkerCount)
				}
			}
			return tw.Flush()
		},
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "print one dataset as YAML or JSON",
		ArgsUsage: "GAME MAP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(loader.FormatYAML), Usage: "yaml or json"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return cli.Exit("dump needs GAME and MAP", 2)
			}
			format, err := loader.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}

			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			game, mapSlug := cmd.Args().Get(0), cmd.Args().Get(1)
			ds, ok := reg.Get(game, mapSlug)
			if !ok {
				return fmt.Errorf("%w: %s/%s", service.ErrMapNotFound, game, mapSlug)
			}

			out, err := loader.EncodeDataset(ds, format)
			if err != nil {
				return err
			}
			_, err = cmd.Root().Writer.Write(out)
			return err
		},
	}
}
