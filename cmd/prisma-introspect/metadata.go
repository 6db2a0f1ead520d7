package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
)

func metadataCommand() *cli.Command {
	return &cli.Command{
		Name:   "metadata",
		Usage:  "Show row counts and sizes of the tables of a schema",
		Flags:  databaseFlags(),
		Action: runMetadata,
	}
}

func runMetadata(ctx context.Context, cmd *cli.Command) error {
	database, dialect, conn, err := connect(cmd)
	if err != nil {
		return err
	}

	defer func() {
		_ = database.Close()
	}()

	m, err := dialect.Metadata(ctx, database, conn.schema)
	if err != nil {
		return err
	}

	return m.Write(os.Stdout)
}
