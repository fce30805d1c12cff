package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"draftcheck/internal/segment"
)

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "show corpus statistics, or classify one token against it",
		ArgsUsage: "[token]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return fmt.Errorf("stats expects at most one token")
			}
			eng, err := newEngine(c)
			if err != nil {
				return err
			}
			corp := eng.Corpus()
			if corp.Empty() {
				fmt.Fprintln(c.App.Writer, "corpus is empty, run 'draftcheck build <dir>' first")
				return nil
			}
			if c.NArg() == 1 {
				token := c.Args().First()
				lang := segment.DetectLanguage(token)
				doc, total := corp.WordStats(token, lang)
				fmt.Fprintf(c.App.Writer, "%s (%s): %s, in %d of %d documents (%.1f%%), %d occurrences\n",
					token, lang, corp.ClassifyWord(token, lang),
					doc, corp.DocCount, corp.DocPercent(doc, lang), total)
				return nil
			}

			fmt.Fprintf(c.App.Writer, "documents: %d (dominant language %s), built %s\n",
				corp.DocCount, corp.Dominant, corp.BuiltAt.Format("2006-01-02 15:04"))
			for _, lang := range []segment.Language{segment.English, segment.Chinese} {
				sum := corp.Summary(lang)
				if sum.WordTypes == 0 {
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s: %d word types, %d bigram types\n", lang, sum.WordTypes, sum.BigramTypes)
				if baseline, ok := corp.SentenceLengthBaseline(lang); ok {
					fmt.Fprintf(c.App.Writer, "    sentence length mean %.1f std %.1f over %d sentences",
						baseline.Mean, baseline.Std, baseline.Count)
					if baseline.FromSample {
						fmt.Fprintf(c.App.Writer, " (p50 %.0f p90 %.0f p95 %.0f)", baseline.P50, baseline.P90, baseline.P95)
					}
					fmt.Fprintln(c.App.Writer)
				}
				if corp.HasSyntaxStats(lang) {
					fmt.Fprintf(c.App.Writer, "    syntax stats from tagger %s (%d POS bigram types)\n", corp.TaggerID, sum.POSBigrams)
				}
			}
			if corp.Semantic.SentenceCount > 0 {
				fmt.Fprintf(c.App.Writer, "semantic index: %d sentences, model %s (dim %d)\n",
					corp.Semantic.SentenceCount, corp.Semantic.ModelID, corp.Semantic.Dimension)
			}
			return nil
		},
	}
}
