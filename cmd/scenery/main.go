package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	commands := []*cli.Command{
		inspectCmd(),
		packCmd(),
		serveCmd(),
		typesCmd(),
		versionCmd(),
	}
	for _, c := range commands {
		c.Before = setup
	}
	return &cli.Command{
		Name:  "scenery",
		Usage: "Scene container inspection, packing and serving",
		Flags: append(loggingFlags(), &cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: $XDG_CONFIG_HOME/scenery/config.yaml)",
			Destination: &configFile,
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: commands,
	}
}
