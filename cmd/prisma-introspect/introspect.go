package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prisma/dml"
	"github.com/prisma/dml/datamodel"
	"github.com/prisma/dml/introspection"
	"github.com/prisma/dml/report"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// ErrDiagnosticWarnings is returned by --strict runs that produced warnings.
var ErrDiagnosticWarnings = errors.New("introspection produced warnings")

func introspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "introspect",
		Usage: "Write the datamodel of a database schema",
		Flags: append(databaseFlags(),
			&cli.StringFlag{
				Name:  "style",
				Usage: "datamodel style: v1 or v2 (default: config, then v2)",
			},
			&cli.StringSliceFlag{
				Name:    "reference",
				Aliases: []string{"r"},
				Usage:   "previous datamodel whose names and ordering are kept; repeat for a datamodel split over several files",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the datamodel to a file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: `table filter expression, e.g. not (name startsWith "_")`,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "per-table catalog reads running at once",
			},
			&cli.BoolFlag{
				Name:  "infer-embedded",
				Usage: "turn single-owner tables into embedded types (v2 only)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "diagnostics format: text or json",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "exit with an error when warnings were reported",
			},
		),
		Action: runIntrospect,
	}
}

func runIntrospect(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	conn, err := resolveConnection(cmd, cfg)
	if err != nil {
		return err
	}

	style, err := dml.StyleFromString(firstNonEmpty(cmd.String("style"), cfg.Style, dml.StyleV2.String()))
	if err != nil {
		return err
	}

	in := &introspection.Introspector{
		Logger:        logger,
		Filter:        firstNonEmpty(cmd.String("filter"), cfg.Filter),
		Concurrency:   cfg.Concurrency,
		Style:         style,
		InferEmbedded: cmd.Bool("infer-embedded") || cfg.InferEmbedded,
	}

	if cmd.IsSet("concurrency") {
		in.Concurrency = cmd.Int("concurrency")
	}

	refs := cmd.StringSlice("reference")
	if len(refs) == 0 && cfg.Reference != "" {
		refs = []string{cfg.Reference}
	}

	if len(refs) > 0 {
		in.Reference, err = loadReference(refs)
		if err != nil {
			return err
		}
	}

	database, err := dml.NewDatabase(conn.name, conn.config)
	if err != nil {
		return err
	}

	defer func() {
		_ = database.Close()
	}()

	start := time.Now()

	result, err := in.Introspect(ctx, database, conn.schema)
	if err != nil {
		return err
	}

	datamodel := result.Render(style)

	if output := firstNonEmpty(cmd.String("output"), cfg.Output); output != "" {
		err := os.WriteFile(output, []byte(datamodel), 0o644) //nolint:gosec // G306: datamodel files are not secret
		if err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}

		logger.Info("wrote datamodel", zap.String("path", output))
	} else {
		fmt.Print(datamodel)
	}

	summary := report.Summary{
		Database:    conn.name,
		Schema:      result.Schema.Schema,
		Types:       len(result.Model.Types),
		Diagnostics: result.Diagnostics,
		Elapsed:     time.Since(start),
	}

	if err := report.Write(report.NewFormatter(cmd.String("format"), os.Stderr), summary); err != nil {
		return err
	}

	if cmd.Bool("strict") && summary.Warnings() > 0 {
		return cli.Exit(ErrDiagnosticWarnings.Error(), 1)
	}

	return nil
}

// loadReference loads the reference datamodel, merging it when it is split
// over several files.
func loadReference(paths []string) ([]byte, error) {
	merged, warnings, err := datamodel.Load(datamodel.NewLoader(), paths, "")
	if err != nil {
		return nil, fmt.Errorf("reading reference: %w", err)
	}

	for _, w := range warnings {
		logger.Warn("reference datamodel", zap.String("path", w.Path), zap.String("code", w.Code), zap.String("message", w.Message))
	}

	logger.Debug("loaded reference datamodel", zap.Strings("files", merged.Files))

	return merged.Data, nil
}
