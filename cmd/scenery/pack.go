package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/scenery/internal/logger"
	"github.com/samcharles93/scenery/internal/pack"
)

func packCmd() *cli.Command {
	return &cli.Command{
		Name:  "pack",
		Usage: "Build a scene container from a YAML manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "manifest",
				Aliases:  []string{"m"},
				Usage:    "YAML manifest listing the dependency records",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"out", "o"},
				Usage:    "output container path",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			n, err := pack.Pack(pack.PackOptions{
				ManifestPath: cmd.String("manifest"),
				OutputPath:   cmd.String("output"),
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("wrote scene", "path", cmd.String("output"), "bytes", n)
			return nil
		},
	}
}
