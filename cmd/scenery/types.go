package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/scenery/internal/api"
	"github.com/samcharles93/scenery/internal/session"
)

func typesCmd() *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:  "types",
		Usage: "List the asset record types the parser understands",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			types := api.AssetTypes(session.NewRegistry().Types())
			if asJSON {
				b, err := json.MarshalIndent(types, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(os.Stdout, "%s\n", b)
				return err
			}
			return writeTypes(os.Stdout, types)
		},
	}
}

func writeTypes(w io.Writer, types []api.AssetType) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND")
	for _, t := range types {
		kind := "extension"
		if t.Builtin {
			kind = "builtin"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", t.ID, t.Name, kind)
	}
	return tw.Flush()
}
