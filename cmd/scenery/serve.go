package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/scenery/internal/api"
	"github.com/samcharles93/scenery/internal/loader"
	"github.com/samcharles93/scenery/internal/logger"
	"github.com/samcharles93/scenery/internal/session"
)

func serveCmd() *cli.Command {
	var (
		addr           string
		readTimeout    time.Duration
		maxUploadBytes int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the scene inspection API",
		Flags: append(assetFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-upload-bytes",
				Usage:       "largest accepted scene upload (0 disables the limit)",
				Value:       64 << 20,
				Destination: &maxUploadBytes,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, fileConfig, &addr, &maxUploadBytes)
			log := logger.FromContext(ctx)

			// Without an asset root the server never touches the filesystem.
			var files loader.Fetcher
			if assetRoot != "" {
				files = fetcher()
			}

			server := api.NewServer(api.NewSceneStore(), api.Config{
				Session: session.Config{
					Fetcher:         files,
					Registry:        session.NewRegistry(),
					Logger:          log,
					DisposeTextures: disposeTextures,
				},
				MaxUploadBytes: maxUploadBytes,
				Logger:         log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "asset_root", assetRoot)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
