package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"draftcheck/internal/analyzer"
	"draftcheck/internal/db"
	"draftcheck/internal/detect"
	"draftcheck/internal/embed"
	"draftcheck/internal/extract"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "score one document against the corpus ('-' reads stdin)",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit the full result as JSON",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "persist the run to the database",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("analyze expects exactly one file argument")
			}
			eng, err := newEngine(c)
			if err != nil {
				return err
			}
			if err := eng.CheckSemanticIndex(); err != nil {
				if errors.Is(err, embed.ErrIndexMismatch) {
					fmt.Fprintln(c.App.ErrWriter, "warning: semantic index was built with a different model, run 'draftcheck build' to refresh it")
				}
			}

			label := c.Args().First()
			text, err := readDocument(c, label)
			if err != nil {
				return err
			}

			res := eng.Analyze(c.Context, text)
			if c.Bool("save") {
				path, err := dbPath(c)
				if err != nil {
					return err
				}
				id, err := db.SaveRun(path, label, res)
				if err != nil {
					return fmt.Errorf("save run: %w", err)
				}
				fmt.Fprintf(c.App.Writer, "saved run %s\n", id)
			}

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(c.App.Writer, res)
			return nil
		},
	}
}

func readDocument(c *cli.Context, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	ex := extract.FileExtractor{}
	if !ex.Supports(arg) {
		return "", fmt.Errorf("unsupported document type: %s", arg)
	}
	return ex.Extract(c.Context, arg)
}

func printResult(w io.Writer, res *analyzer.Result) {
	fmt.Fprintf(w, "score: %d (%s), language %s, %d sentences\n",
		res.Report.Score, res.Report.Level, res.Language, res.SentenceCount)
	fmt.Fprintf(w, "  word %.2f  phrase %s  sentence %.2f  style %.2f  semantic %.2f  syntax %s\n",
		res.Report.Word,
		componentOrOff(res.Report.Phrase, res.Report.PhraseAvailable),
		res.Report.Sentence,
		res.Report.Style,
		res.Report.Semantic,
		componentOrOff(res.Report.Syntax, res.Report.SyntaxAvailable),
	)
	for _, d := range res.Diagnoses {
		fmt.Fprintf(w, "\n%d..%d %s\n", d.Start, d.End, shorten(d.Sentence, 100))
		for _, issue := range d.Issues {
			fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Severity, issue.Kind, issueLine(issue))
		}
	}
}

func componentOrOff(v float64, available bool) string {
	if !available {
		return "off"
	}
	return fmt.Sprintf("%.2f", v)
}

func issueLine(issue detect.Issue) string {
	if issue.Match == "" {
		return issue.Description
	}
	return issue.Description + " (" + issue.Match + ")"
}

func shorten(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
