package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/config"
	"github.com/kailas-cloud/ragsearch/internal/db/memory"
)

var errSeedDriver = errors.New("embed-seed needs database.driver: memory")

// embedSeedAction writes the seed file back with every missing embedding filled in.
func embedSeedAction(ctx context.Context, cmd *cli.Command) error {
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newCLILogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	return embedSeed(ctx, &cfg, cmd.String("out"), os.Stdout, logger)
}

// embedSeed fills the configured seed file and writes it to out (in place when out is empty).
// Nothing is written if any record fails to embed.
func embedSeed(ctx context.Context, cfg *config.Config, out string, w io.Writer, logger *zap.Logger) error {
	if cfg.Database.Driver != config.DriverMemory {
		return fmt.Errorf("%w, got %q", errSeedDriver, cfg.Database.Driver)
	}
	if out == "" {
		out = cfg.Database.SeedFile
	}

	store, err := memory.LoadFile(cfg.Database.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to load seed file: %w", err)
	}
	missing := store.Missing()
	if missing == 0 {
		_, _ = fmt.Fprintf(w, "%s: all %d records already embedded\n", cfg.Database.SeedFile, store.Len())
		return nil
	}

	embedder := newBaseEmbedder(cfg, logger)
	n, err := store.FillEmbeddings(ctx, embedFunc(embedder, cfg.Timeouts.Embedding()))
	if err != nil {
		return fmt.Errorf("embedded %d of %d records: %w", n, missing, err)
	}
	if err := store.WriteFile(out); err != nil {
		return fmt.Errorf("failed to write seed file: %w", err)
	}

	_, _ = fmt.Fprintf(w, "%s: embedded %d records with %s, wrote %s\n",
		cfg.Database.SeedFile, n, embedder.ModelName(), out)
	return nil
}
