package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosuri/uiprogress"
	"github.com/urfave/cli/v2"

	"draftcheck/internal/extract"
)

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "build the reference corpus from a directory of documents",
		ArgsUsage: "<dir>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "suppress the progress bar",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("build expects exactly one directory argument")
			}
			eng, err := newEngine(c)
			if err != nil {
				return err
			}

			var progress func(done, total int)
			var bar *uiprogress.Bar
			if !c.Bool("quiet") {
				uiprogress.Start()
				// The document walk and the embedding phase report against
				// different totals; each phase gets its own bar.
				progress = func(done, total int) {
					if bar == nil || bar.Total != total {
						bar = uiprogress.AddBar(total)
						bar.AppendCompleted()
						bar.PrependElapsed()
					}
					bar.Set(done)
				}
				defer uiprogress.Stop()
			}

			docs, err := eng.Build(c.Context, c.Args().First(), extract.FileExtractor{}, progress)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Fprintln(c.App.ErrWriter, "build cancelled, previous corpus kept")
					return nil
				}
				return err
			}
			fmt.Fprintf(c.App.Writer, "corpus built from %d documents\n", docs)
			return nil
		},
	}
}
