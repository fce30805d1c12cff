package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"draftcheck/internal/db"
)

func runsCommand() *cli.Command {
	return &cli.Command{
		Name:      "runs",
		Usage:     "list saved runs, or show one run by id",
		ArgsUsage: "[run-id]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return fmt.Errorf("runs expects at most one run id")
			}
			path, err := dbPath(c)
			if err != nil {
				return err
			}
			if c.NArg() == 1 {
				run, err := db.LoadRun(path, c.Args().First())
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "%s  %s  %s\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04"), run.Label)
				printResult(c.App.Writer, &run.Result)
				return nil
			}

			runs, err := db.ListRuns(path)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(c.App.Writer, "no saved runs")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(c.App.Writer, "%s  %s  score %3d (%s)  %s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Score, r.Level, r.Label)
			}
			return nil
		},
	}
}
