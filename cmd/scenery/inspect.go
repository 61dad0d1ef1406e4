package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/scenery/internal/asset"
	"github.com/samcharles93/scenery/internal/logger"
	"github.com/samcharles93/scenery/internal/session"
	"github.com/samcharles93/scenery/pkg/scene"
)

func inspectCmd() *cli.Command {
	var (
		asJSON      bool
		runJobs     bool
		concurrency int
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Parse scene containers and report their dependencies and errors",
		ArgsUsage: "<scene> [scene...]",
		Flags: append(assetFlags(),
			&cli.BoolFlag{Name: "json", Usage: "print reports as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "run-jobs", Usage: "run the jobs produced by each parse", Destination: &runJobs},
			&cli.IntFlag{
				Name:        "concurrency",
				Aliases:     []string{"j"},
				Usage:       "scenes parsed in parallel",
				Value:       runtime.GOMAXPROCS(0),
				Destination: &concurrency,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return cli.Exit("error: at least one scene file is required", 1)
			}

			cfg := session.Config{
				Fetcher:         fetcher(),
				Registry:        session.NewRegistry(),
				Logger:          log,
				DisposeTextures: disposeTextures,
				RunJobs:         runJobs,
			}
			reports, err := inspectAll(ctx, cfg, paths, concurrency)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			if asJSON {
				err = writeReportsJSON(os.Stdout, reports)
			} else {
				err = writeReports(os.Stdout, reports)
			}
			if err != nil {
				return err
			}

			invalid := 0
			for _, rep := range reports {
				if !rep.Valid {
					invalid++
				}
			}
			if invalid > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d scenes are invalid", invalid, len(reports)), 2)
			}
			return nil
		},
	}
}

// inspectAll parses every path with at most limit sessions in flight.
// Reports keep the order of paths. Invalid headers are reported, not
// returned.
func inspectAll(ctx context.Context, cfg session.Config, paths []string, limit int) ([]*session.Report, error) {
	reports := make([]*session.Report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			data, err := cfg.Fetcher.Fetch(gctx, path, asset.Range{})
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			rep, err := session.Run(gctx, cfg, path, data)
			var se *scene.Error
			if err != nil && !errors.As(err, &se) {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func writeReportsJSON(w io.Writer, reports []*session.Report) error {
	b, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func writeReports(w io.Writer, reports []*session.Report) error {
	for i, rep := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeReport(w, rep); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(w io.Writer, rep *session.Report) error {
	if !rep.Valid {
		fmt.Fprintf(w, "%s: invalid\n", rep.Name)
		for _, e := range rep.Errors {
			fmt.Fprintf(w, "  %s: %s\n", e.Code, e.Message)
		}
		return nil
	}

	fmt.Fprintf(w, "%s: v%s, %s\n", rep.Name, rep.Version, formatBytes(uint64(rep.FileSize)))
	fmt.Fprintf(w, "  header %d, dependencies %d, scene data %d bytes\n",
		rep.HeaderSize, rep.DependenciesSize, rep.SceneDataSize)

	if len(rep.Dependencies) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  KIND\tID\tRESOLVED\tNAME\tDETAIL")
		for _, d := range rep.Dependencies {
			fmt.Fprintf(tw, "  %s\t%d\t%t\t%s\t%s\n", d.Kind, d.ID, d.Resolved, d.Name, d.Detail)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, "  no dependencies")
	}

	if len(rep.Errors) > 0 {
		fmt.Fprintf(w, "  errors (%d):\n", len(rep.Errors))
		for _, e := range rep.Errors {
			if e.Cause != "" {
				fmt.Fprintf(w, "    %s %s: %s\n", e.Code, e.Message, e.Cause)
			} else {
				fmt.Fprintf(w, "    %s %s\n", e.Code, e.Message)
			}
		}
	}
	for _, path := range rep.Unparsed {
		fmt.Fprintf(w, "  unparsed: %s\n", path)
	}

	jobs := fmt.Sprintf("%d", rep.Jobs)
	if rep.JobsRun {
		jobs += " (run)"
	}
	_, err := fmt.Fprintf(w, "  jobs: %s, parsed in %s\n", jobs, rep.Duration.Round(time.Microsecond))
	return err
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
