package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/scenery/internal/loader"
	"github.com/samcharles93/scenery/internal/logger"
)

var (
	configFile      string
	assetRoot       string
	disposeTextures bool
	logLevel        string
	logFormat       string
	debug           bool

	// fileConfig is the config file loaded by setup.
	fileConfig Config
)

func assetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "asset-root",
			Aliases:     []string{"root"},
			Usage:       "directory that scene and dependency paths resolve against",
			Destination: &assetRoot,
		},
		&cli.BoolFlag{
			Name:        "dispose-textures",
			Usage:       "drop decoded texture data once a texture is registered",
			Destination: &disposeTextures,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// setup loads the config file, applies it to flags the user left unset and
// puts the configured logger on the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = configPath()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	fileConfig = cfg
	applyConfig(cmd, cfg)

	level := logLevel
	if debug {
		level = "debug"
	}
	log, err := logger.ForFormat(os.Stderr, logFormat, level)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	return logger.WithContext(ctx, log), nil
}

// fetcher serves files under the asset root, or relative to the working
// directory when no root is configured.
func fetcher() loader.FileFetcher {
	return loader.FileFetcher{Root: assetRoot}
}
