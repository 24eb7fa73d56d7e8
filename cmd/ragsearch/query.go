package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain/search/outcome"
	chiTransport "github.com/kailas-cloud/ragsearch/internal/transport/chi"
)

var errQueryFailed = errors.New("query failed")

// queryAction runs a single search from the command line. Logs go to stderr
// at warn level so stdout carries only the JSON envelope.
func queryAction(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("usage: ragsearch query <query text>")
	}

	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newCLILogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	svc, err := buildServices(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	return printOutcome(os.Stdout, svc.search.Search(ctx, query))
}

// printOutcome writes the same envelope the HTTP API returns.
// A failed outcome is printed too, then reported as an error for the exit code.
func printOutcome(w io.Writer, out outcome.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if !out.Success() {
		_ = enc.Encode(map[string]any{"success": false, "error": out.Err().Error()})
		return fmt.Errorf("%w: %w", errQueryFailed, out.Err())
	}
	return enc.Encode(chiTransport.NewSearchResponse(out))
}

func newCLILogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	return cfg.Build()
}
