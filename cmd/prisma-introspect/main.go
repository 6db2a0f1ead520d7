// Command prisma-introspect reads a database catalog and writes the datamodel
// describing it.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// Import databases to register their clients and dialects via init().
	_ "github.com/prisma/dml/databases/mysql"
	_ "github.com/prisma/dml/databases/postgres"
	_ "github.com/prisma/dml/databases/sqlite"
)

var logger = zap.NewNop()

func main() {
	// A missing .env is fine; the environment may be set some other way.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:  "prisma-introspect",
		Usage: "Introspect a database into a Prisma datamodel",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path of the config file (default: nearest .prisma-introspect.yaml)",
				Sources: cli.EnvVars("PRISMA_INTROSPECT_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log progress",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: setupLogger,
		After: func(context.Context, *cli.Command) error {
			_ = logger.Sync()

			return nil
		},
		Commands: []*cli.Command{
			introspectCommand(),
			schemasCommand(),
			metadataCommand(),
			formatCommand(),
			lintCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setupLogger builds the development logger. Logs go to stderr so that the
// datamodel can be piped from stdout.
func setupLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)

	switch {
	case cmd.Bool("debug"):
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case cmd.Bool("verbose"):
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	l, err := config.Build()
	if err != nil {
		return ctx, err
	}

	logger = l

	return ctx, nil
}
