package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/ragsearch/internal/config"
	"github.com/kailas-cloud/ragsearch/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "ragsearch",
		Usage:   "School information search: vector search with keyword fallback and reranking",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "config environment (config/<env>.yaml); defaults to $ENV, then local",
			},
			&cli.StringFlag{
				Name:  "dotenv",
				Usage: "path to a .env file; a missing file is ignored",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API server",
				Action: serveAction,
			},
			{
				Name:      "query",
				Usage:     "run one search and print the response envelope",
				ArgsUsage: "<query text>",
				Action:    queryAction,
			},
			{
				Name:   "embed-seed",
				Usage:  "embed seed records that have no vector and write the seed file back",
				Action: embedSeedAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "output path (default: overwrite database.seed_file)",
					},
				},
			},
		},
		DefaultCommand: "serve",
	}
}

// loadConfig applies the .env file, then reads config/<env>.yaml.
// ENV is resolved after .env so the file can select the environment.
func loadConfig(cmd *cli.Command) (string, config.Config, error) {
	if err := config.LoadDotEnv(cmd.String("dotenv")); err != nil {
		return "", config.Config{}, err
	}
	env := cmd.String("env")
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		return "", config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return env, cfg, nil
}
