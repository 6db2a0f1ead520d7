package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/prisma/dml"
	"github.com/prisma/dml/analysis"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrLintFailed is returned when linting finds errors.
var ErrLintFailed = errors.New("datamodel files have errors")

func lintCommand() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Check datamodel files for errors and questionable declarations",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "style",
				Usage: "datamodel style: v1 or v2 (default: config, then v2)",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "fail on warnings as well as errors",
			},
		},
		Action: runLint,
	}
}

func runLint(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		args = []string{"."}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	style, err := dml.StyleFromString(firstNonEmpty(cmd.String("style"), cfg.Style))
	if err != nil {
		return err
	}

	files, err := collectDatamodelFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return ErrNoDatamodelFiles
	}

	results, err := lintFiles(ctx, analysis.NewAnalyzer(style), files)
	if err != nil {
		return err
	}

	failed := 0

	for _, f := range results {
		writeLintResult(os.Stdout, f)

		for _, d := range f.Diagnostics {
			if d.Severity == analysis.SeverityError || (cmd.Bool("strict") && d.Severity == analysis.SeverityWarning) {
				failed++
			}
		}
	}

	logger.Info("linted datamodel files", zap.Int("files", len(files)), zap.Int("failures", failed))

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%v: %d", ErrLintFailed, failed), 1)
	}

	return nil
}

// lintFiles analyzes files in parallel. Results keep the order of files.
func lintFiles(ctx context.Context, analyzer *analysis.Analyzer, files []string) ([]*analysis.AnalyzedFile, error) {
	results := make([]*analysis.AnalyzedFile, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(path) //nolint:gosec // G304: file path from user input is expected
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			results[i] = analyzer.Analyze(path, data)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// writeLintResult prints one line per diagnostic in the file:line:col form
// editors understand.
func writeLintResult(w io.Writer, f *analysis.AnalyzedFile) {
	for _, d := range f.Diagnostics {
		_, _ = fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n",
			f.Path, d.Span.Start.Line, d.Span.Start.Column, d.Severity, d.Message, d.Code)
	}
}
