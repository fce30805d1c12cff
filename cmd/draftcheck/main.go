// Command draftcheck scores draft documents against a reference corpus and
// reports where they diverge from it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"draftcheck/internal/analyzer"
	"draftcheck/internal/config"
	"draftcheck/internal/embed"
	"draftcheck/internal/postag"
	"draftcheck/internal/workspace"
)

func main() {
	app := &cli.App{
		Name:  "draftcheck",
		Usage: "measure how far a draft diverges from a reference corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Usage:   "data directory for the corpus snapshot and run database",
				Value:   defaultDataDir(),
				EnvVars: []string{"DRAFTCHECK_DATA"},
			},
			&cli.StringFlag{
				Name:    "policy",
				Usage:   "optional YAML policy file overriding the default thresholds",
				EnvVars: []string{"DRAFTCHECK_POLICY"},
			},
			&cli.StringFlag{
				Name:    "embed-url",
				Usage:   "embedding service endpoint (empty selects the offline model)",
				EnvVars: []string{"DRAFTCHECK_EMBED_URL"},
			},
			&cli.StringFlag{
				Name:    "embed-model",
				Value:   "nomic-embed-text",
				Usage:   "embedding model name on the service",
				EnvVars: []string{"DRAFTCHECK_EMBED_MODEL"},
			},
			&cli.StringFlag{
				Name:    "tag-url",
				Usage:   "POS tagging service endpoint (empty disables the syntax signal)",
				EnvVars: []string{"DRAFTCHECK_TAG_URL"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log pipeline stages to stderr",
			},
		},
		Commands: []*cli.Command{
			buildCommand(),
			analyzeCommand(),
			statsCommand(),
			runsCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "draftcheck: %v\n", err)
		os.Exit(1)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return workspace.BaseDirName
	}
	return filepath.Join(home, workspace.BaseDirName)
}

func dataPaths(c *cli.Context) (workspace.Paths, error) {
	return workspace.At(c.String("data"))
}

func dbPath(c *cli.Context) (string, error) {
	paths, err := dataPaths(c)
	if err != nil {
		return "", err
	}
	return paths.Database, nil
}

// stderrLogger writes stage logs in the level/stage/message shape the
// internal packages expect.
type stderrLogger struct{}

func (stderrLogger) Log(level, stage, message, detail string) {
	if detail != "" {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s (%s)\n", level, stage, message, detail)
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", level, stage, message)
}

func newEngine(c *cli.Context) (*analyzer.Engine, error) {
	policy := config.Default()
	if path := c.String("policy"); path != "" {
		var err error
		policy, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load policy: %w", err)
		}
	}

	var model embed.Model
	if url := c.String("embed-url"); url != "" {
		model = embed.NewHTTPModel(url, c.String("embed-model"), 0)
	} else {
		model = embed.NewLocalModel(0)
	}

	var tagger postag.Tagger = postag.Disabled{}
	if url := c.String("tag-url"); url != "" {
		tagger = postag.NewHTTPTagger(url, "")
	}

	var logger analyzer.Logger
	if c.Bool("verbose") {
		logger = stderrLogger{}
	}

	paths, err := dataPaths(c)
	if err != nil {
		return nil, err
	}
	return analyzer.New(paths.Snapshot, policy, model, tagger, logger)
}
